package domain

import "fmt"

// TownshipGrid holds the SectionGrids of one township/range, keyed by
// section number 1-36. Section grids are created lazily on first
// reference and live as long as the township grid.
type TownshipGrid struct {
	TwpRge   TwpRge
	sections map[int]*SectionGrid
}

// NewTownshipGrid creates an empty township grid.
func NewTownshipGrid(tr TwpRge) *TownshipGrid {
	return &TownshipGrid{
		TwpRge:   tr,
		sections: make(map[int]*SectionGrid),
	}
}

// Section returns the grid for a section, creating it if this is the first
// reference. Section numbers outside 1-36 are rejected.
func (t *TownshipGrid) Section(n int) (*SectionGrid, error) {
	if !ValidSection(n) {
		return nil, fmt.Errorf("invalid section %d in %s", n, t.TwpRge.Key())
	}
	g, ok := t.sections[n]
	if !ok {
		g = NewSectionGrid(n)
		t.sections[n] = g
	}
	return g, nil
}

// FilledSections returns the section grids with at least one filled cell
// or unresolved lot, in ascending section order.
func (t *TownshipGrid) FilledSections() []*SectionGrid {
	var out []*SectionGrid
	for n := 1; n <= 36; n++ {
		if g, ok := t.sections[n]; ok && (g.HasAny() || len(g.unresolved) > 0) {
			out = append(out, g)
		}
	}
	return out
}

// SectionCoord returns the (col, row) position of a section within the 6x6
// township layout. Sections snake west from the northeast corner: row 0 is
// 6..1 reading left to right, row 1 is 7..12, and so on.
func SectionCoord(n int) (col, row int, err error) {
	if !ValidSection(n) {
		return 0, 0, fmt.Errorf("invalid section %d", n)
	}
	row = (n - 1) / 6
	col = (n - 1) % 6
	if row%2 == 0 {
		col = 5 - col
	}
	return col, row, nil
}
