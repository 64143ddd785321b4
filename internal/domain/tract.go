package domain

import (
	"context"
	"strings"
	"time"
)

// RawTractRecord is the flat JSON structure carried on the source topic.
// Structured events set Twp/Rge/Sec plus Aliquots and/or Lots; events from
// sources that only have free text set Text instead, and the pipeline hands
// those to the external description parser.
type RawTractRecord struct {
	Twp      string   `json:"Twp"`      // e.g. "154n"
	Rge      string   `json:"Rge"`      // e.g. "97w"
	Sec      int      `json:"Sec"`      // 1-36
	Aliquots []string `json:"Aliquots"` // aliquot-set strings, e.g. "S2N2"
	Lots     []string `json:"Lots"`     // lot names, e.g. "L1"
	Desc     string   `json:"Desc"`     // original description text (presentation only)
	Text     string   `json:"Text"`     // raw unparsed description, if structured fields are absent
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParsedTract is one structured land description destined for a single
// section: its township/range/section plus the aliquot strings and lot
// names claimed by the description.
type ParsedTract struct {
	TwpRge   TwpRge
	Sec      int
	Aliquots []string
	Lots     []string

	// Desc is the originating description text, carried through for
	// labeling on rendered plats. It plays no part in resolution.
	Desc string
}

// DescriptionParser converts free-text PLSS descriptions into structured
// tracts. Implemented by the external parser service client.
type DescriptionParser interface {
	ParseDescription(ctx context.Context, text string) ([]ParsedTract, error)
}

// NormalizeLotName returns the canonical lot identifier for any of the
// accepted spellings: "1", "l1", "L1", and divided forms like "N2 of L1"
// all normalize to "L1".
func NormalizeLotName(lot string) string {
	lot = strings.TrimSpace(lot)
	if lot == "" {
		return ""
	}
	// Cull lot divisions: "N2 of L1" -> "L1".
	if i := strings.LastIndexByte(lot, ' '); i >= 0 {
		lot = lot[i+1:]
	}
	lot = strings.ToUpper(lot)
	if !strings.HasPrefix(lot, "L") {
		lot = "L" + lot
	}
	return lot
}
