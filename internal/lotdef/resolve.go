package lotdef

import "github.com/couchcryptid/plss-plat-etl/internal/domain"

// Resolve maps a lot request to QQ cells. The algorithm, in order:
//
//  1. An explicit definition, if present, is decomposed into QQs. A
//     definition that fails to decode leaves the lot unresolved; it does
//     not fall through to defaults.
//  2. With allowDefaults set, and no explicit lots at all for the section,
//     the standard-township default table may supply a single QQ.
//  3. Anything else is unresolved.
//
// Explicit lots disable defaults for the whole section, not just the lot
// numbers they cover: partial explicit data means the surveyor recorded
// this section as non-standard, so guessing defaults for the gaps would
// plat cells the data contradicts.
//
// Pure function of its inputs and the DB state; ok is false when the lot
// is unresolved.
func Resolve(db *DB, tr domain.TwpRge, section int, lot string, allowDefaults bool) ([]domain.QQ, bool) {
	lot = domain.NormalizeLotName(lot)

	if def, found := db.Definition(tr, section, lot); found {
		qqs, err := domain.DecomposeAliquot(def)
		if err != nil {
			return nil, false
		}
		return qqs, true
	}

	if allowDefaults && !db.HasExplicitLots(tr, section) {
		if q, found := DefaultLotQQ(section, lot); found {
			return []domain.QQ{q}, true
		}
	}

	return nil, false
}
