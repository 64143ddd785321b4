package lotdef

import "github.com/couchcryptid/plss-plat-etl/internal/domain"

// Default lot layouts for a standard township, per the conventional General
// Land Office survey. Only the 11 sections along the north and west township
// boundaries carry lots: the north row (1-5), the west column (7, 18, 19,
// 30, 31), and section 6 in the northwest corner, which touches both edges
// and carries seven lots. These are a better-than-nothing fallback; real
// townships frequently deviate, which is why explicit definitions always
// take precedence.

var defaultNorthRow = map[string]domain.QQ{
	"L1": domain.NENE,
	"L2": domain.NWNE,
	"L3": domain.NENW,
	"L4": domain.NWNW,
}

var defaultNorthwestCorner = map[string]domain.QQ{
	"L1": domain.NENE,
	"L2": domain.NWNE,
	"L3": domain.NENW,
	"L4": domain.NWNW,
	"L5": domain.SWNW,
	"L6": domain.NWSW,
	"L7": domain.SWSW,
}

var defaultWestColumn = map[string]domain.QQ{
	"L1": domain.NWNW,
	"L2": domain.SWNW,
	"L3": domain.NWSW,
	"L4": domain.SWSW,
}

// DefaultLotSections lists the sections of a standard township that carry
// default lots, ascending.
var DefaultLotSections = []int{1, 2, 3, 4, 5, 6, 7, 18, 19, 30, 31}

// DefaultLotQQ returns the conventional QQ for (section, lot) in a standard
// township, if that section position carries such a lot.
func DefaultLotQQ(section int, lot string) (domain.QQ, bool) {
	lot = domain.NormalizeLotName(lot)
	var table map[string]domain.QQ
	switch {
	case section >= 1 && section <= 5:
		table = defaultNorthRow
	case section == 6:
		table = defaultNorthwestCorner
	case section == 7 || section == 18 || section == 19 || section == 30 || section == 31:
		table = defaultWestColumn
	default:
		return "", false
	}
	q, ok := table[lot]
	return q, ok
}
