package domain

import "time"

// SectionSnapshot is the serializable state of one section: the filled
// quarter-quarters in grid order plus any lots left unresolved.
type SectionSnapshot struct {
	Section        int      `json:"section"`
	FilledQQs      []string `json:"filled_qqs"`
	UnresolvedLots []string `json:"unresolved_lots,omitempty"`
}

// PlatSnapshot is the serializable state of one township plat, published
// to the sink topic whenever a batch touches the township. Sections with
// nothing filled and nothing unresolved are omitted.
type PlatSnapshot struct {
	TwpRge      string            `json:"twprge"`
	GeneratedAt time.Time         `json:"generated_at"`
	Sections    []SectionSnapshot `json:"sections"`
}

// SnapshotTownship captures the current state of a township grid.
func SnapshotTownship(t *TownshipGrid, at time.Time) PlatSnapshot {
	snap := PlatSnapshot{
		TwpRge:      t.TwpRge.Key(),
		GeneratedAt: at,
	}
	for _, sec := range t.FilledSections() {
		ss := SectionSnapshot{
			Section:        sec.Section,
			FilledQQs:      make([]string, 0, 16),
			UnresolvedLots: sec.UnresolvedLots(),
		}
		for _, q := range sec.FilledQQs() {
			ss.FilledQQs = append(ss.FilledQQs, string(q))
		}
		snap.Sections = append(snap.Sections, ss)
	}
	return snap
}
