package domain

import (
	"fmt"
	"strings"
)

// DecodeError reports a malformed term in an aliquot string.
type DecodeError struct {
	Term   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode aliquot term %q: %s", e.Term, e.Reason)
}

// rect is an inclusive cell rectangle within the 4x4 section grid.
type rect struct {
	x0, y0, x1, y1 int
}

var fullSection = rect{0, 0, 3, 3}

// DecomposeAliquot expands an aliquot-set string into the QQ cells it covers.
//
// The input is a comma-separated list of terms. Each term is "ALL" or a
// concatenation of two-letter tokens, halves (N2, S2, E2, W2) and quarters
// (NE, NW, SE, SW), applied right to left, each narrowing the region
// selected by the tokens to its right. Spaces are ignored; case is not
// significant. Terms union, and duplicate cells across terms collapse.
//
// Nesting below the quarter-quarter level truncates to the containing QQ
// ("S2NENE" yields NENE), matching how parsed source data is smoothed
// before platting.
//
// The returned cells are in stable grid order. A malformed term yields a
// *DecodeError naming the term; no partial result is returned.
func DecomposeAliquot(s string) ([]QQ, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if cleaned == "" {
		return nil, &DecodeError{Term: s, Reason: "empty aliquot string"}
	}

	hits := make(map[QQ]bool, 16)
	for _, term := range strings.Split(cleaned, ",") {
		if err := decomposeTerm(term, hits); err != nil {
			return nil, err
		}
	}

	// Stable order: iterate the canonical grid order, not the map.
	out := make([]QQ, 0, len(hits))
	for _, q := range AllQQs {
		if hits[q] {
			out = append(out, q)
		}
	}
	return out, nil
}

func decomposeTerm(term string, hits map[QQ]bool) error {
	if term == "" {
		return &DecodeError{Term: term, Reason: "empty term"}
	}
	if term == "ALL" {
		for _, q := range AllQQs {
			hits[q] = true
		}
		return nil
	}

	tokens, err := tokenizeTerm(term)
	if err != nil {
		return err
	}

	// Apply tokens right to left: the rightmost selects within the full
	// section, each token to its left narrows the selection.
	region := fullSection
	for i := len(tokens) - 1; i >= 0; i-- {
		region = applyToken(tokens[i], region)
	}

	for y := region.y0; y <= region.y1; y++ {
		for x := region.x0; x <= region.x1; x++ {
			q, ok := QQAt(x, y)
			if !ok {
				return &DecodeError{Term: term, Reason: "selection outside section grid"}
			}
			hits[q] = true
		}
	}
	return nil
}

func tokenizeTerm(term string) ([]string, error) {
	if len(term)%2 != 0 {
		return nil, &DecodeError{Term: term, Reason: "odd-length term"}
	}
	tokens := make([]string, 0, len(term)/2)
	for i := 0; i < len(term); i += 2 {
		tok := term[i : i+2]
		switch tok {
		case "NE", "NW", "SE", "SW", "N2", "S2", "E2", "W2":
			tokens = append(tokens, tok)
		default:
			return nil, &DecodeError{Term: term, Reason: fmt.Sprintf("unrecognized token %q", tok)}
		}
	}
	return tokens, nil
}

// applyToken narrows a region by one half or quarter token. A dimension
// already at single-cell width is left alone, which truncates nesting
// deeper than the QQ level.
func applyToken(tok string, r rect) rect {
	switch tok {
	case "N2":
		r.y1 = shrinkLow(r.y0, r.y1)
	case "S2":
		r.y0 = shrinkHigh(r.y0, r.y1)
	case "W2":
		r.x1 = shrinkLow(r.x0, r.x1)
	case "E2":
		r.x0 = shrinkHigh(r.x0, r.x1)
	case "NE":
		r.x0 = shrinkHigh(r.x0, r.x1)
		r.y1 = shrinkLow(r.y0, r.y1)
	case "NW":
		r.x1 = shrinkLow(r.x0, r.x1)
		r.y1 = shrinkLow(r.y0, r.y1)
	case "SE":
		r.x0 = shrinkHigh(r.x0, r.x1)
		r.y0 = shrinkHigh(r.y0, r.y1)
	case "SW":
		r.x1 = shrinkLow(r.x0, r.x1)
		r.y0 = shrinkHigh(r.y0, r.y1)
	}
	return r
}

// shrinkLow returns the new upper bound after keeping the low half of [lo,hi].
func shrinkLow(lo, hi int) int {
	if hi == lo {
		return hi
	}
	return lo + (hi-lo)/2
}

// shrinkHigh returns the new lower bound after keeping the high half of [lo,hi].
func shrinkHigh(lo, hi int) int {
	if hi == lo {
		return lo
	}
	return lo + (hi-lo)/2 + 1
}
