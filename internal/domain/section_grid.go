package domain

import (
	"fmt"
	"strings"
)

// SectionGrid is the 4x4 quarter-quarter occupancy map for one section.
//
// Fills are monotonic: a cell moves from empty to filled and never back.
// Lots that could not be resolved to any QQ are recorded in insertion
// order with duplicates suppressed.
type SectionGrid struct {
	Section int

	filled         map[QQ]bool
	unresolved     []string
	unresolvedSeen map[string]bool
}

// NewSectionGrid creates an empty grid for the given section number.
// The section number is not validated here; TownshipGrid rejects numbers
// outside 1-36 before a grid is ever created.
func NewSectionGrid(section int) *SectionGrid {
	return &SectionGrid{
		Section:        section,
		filled:         make(map[QQ]bool, 16),
		unresolvedSeen: make(map[string]bool),
	}
}

// FillQQ marks a single cell filled. Names outside the 16-cell vocabulary
// are rejected and never written into the map.
func (g *SectionGrid) FillQQ(q QQ) error {
	if !ValidQQ(string(q)) {
		return fmt.Errorf("unknown QQ %q in section %d", string(q), g.Section)
	}
	g.filled[q] = true
	return nil
}

// FillQQs marks every listed cell filled, rejecting the whole list if any
// name is invalid.
func (g *SectionGrid) FillQQs(qqs []QQ) error {
	for _, q := range qqs {
		if !ValidQQ(string(q)) {
			return fmt.Errorf("unknown QQ %q in section %d", string(q), g.Section)
		}
	}
	for _, q := range qqs {
		g.filled[q] = true
	}
	return nil
}

// Filled reports whether the named cell is filled.
func (g *SectionGrid) Filled(q QQ) bool { return g.filled[q] }

// FilledQQs returns the filled cells in grid order.
func (g *SectionGrid) FilledQQs() []QQ {
	out := make([]QQ, 0, len(g.filled))
	for _, q := range AllQQs {
		if g.filled[q] {
			out = append(out, q)
		}
	}
	return out
}

// HasAny reports whether at least one cell is filled.
func (g *SectionGrid) HasAny() bool { return len(g.filled) > 0 }

// AddUnresolvedLot records a lot that could not be mapped to any QQ.
// Order of first insertion is preserved; repeats are dropped.
func (g *SectionGrid) AddUnresolvedLot(lot string) {
	lot = NormalizeLotName(lot)
	if lot == "" || g.unresolvedSeen[lot] {
		return
	}
	g.unresolvedSeen[lot] = true
	g.unresolved = append(g.unresolved, lot)
}

// UnresolvedLots returns the unresolved lot names in insertion order.
// The returned slice is a copy.
func (g *SectionGrid) UnresolvedLots() []string {
	out := make([]string, len(g.unresolved))
	copy(out, g.unresolved)
	return out
}

// Merge unions another grid's filled cells and unresolved lots into this
// one. The other grid is not modified.
func (g *SectionGrid) Merge(other *SectionGrid) {
	for q := range other.filled {
		g.filled[q] = true
	}
	for _, lot := range other.unresolved {
		g.AddUnresolvedLot(lot)
	}
}

// TextPlat renders the section as a small ASCII plat, filled cells drawn
// as XXXX blocks.
func (g *SectionGrid) TextPlat() string {
	const boxWidth = 4
	totalWidth := 1 + 4*(boxWidth+1)

	var b strings.Builder
	b.WriteString(strings.Repeat("=", totalWidth))
	for row := 0; row < 4; row++ {
		b.WriteString("\n|")
		for col := 0; col < 4; col++ {
			q, _ := QQAt(col, row)
			if g.filled[q] {
				b.WriteString(strings.Repeat("X", boxWidth))
			} else {
				b.WriteString(strings.Repeat(" ", boxWidth))
			}
			b.WriteByte('|')
		}
		if row != 3 {
			b.WriteString("\n|")
			for col := 0; col < 4; col++ {
				b.WriteString(strings.Repeat("-", boxWidth))
				if col != 3 {
					b.WriteByte('+')
				}
			}
			b.WriteByte('|')
		}
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", totalWidth))
	return b.String()
}
