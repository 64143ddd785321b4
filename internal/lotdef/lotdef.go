// Package lotdef stores lot-to-aliquot definitions and resolves lot names
// to quarter-quarter cells.
//
// Definitions form a three-level hierarchy: township/range key → section
// number → lot name → aliquot-set string. A section with no entry has no
// explicit definitions, which is what enables the default-lot fallback; a
// section with even one explicit lot disables defaults for that section
// entirely (the all-or-nothing override policy, see Resolve).
package lotdef

import (
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
)

// Definitions maps normalized lot names to aliquot-set strings for one
// section, e.g. "L4" → "E2NW,SWNW". The last write for a lot wins.
type Definitions map[string]string

// SetLot records a definition, normalizing the lot name ("1" → "L1").
func (d Definitions) SetLot(lot, aliquots string) {
	lot = domain.NormalizeLotName(lot)
	if lot == "" {
		return
	}
	d[lot] = strings.ToUpper(strings.ReplaceAll(aliquots, " ", ""))
}

// TwpDefinitions maps section numbers to per-section Definitions for one
// township/range.
type TwpDefinitions map[int]Definitions

// DB holds lot definitions for any number of townships, keyed by the
// canonical twprge key. Writes happen in a load phase before resolution;
// the engine does no internal locking (hosts serialize concurrent import
// against resolution).
type DB struct {
	twps map[string]TwpDefinitions
}

// NewDB creates an empty definition database.
func NewDB() *DB {
	return &DB{twps: make(map[string]TwpDefinitions)}
}

// SetLot records a definition for (twprge, section, lot), creating the
// intermediate levels as needed. Last write wins for duplicate keys.
func (db *DB) SetLot(tr domain.TwpRge, section int, lot, aliquots string) {
	key := tr.Key()
	tld, ok := db.twps[key]
	if !ok {
		tld = make(TwpDefinitions)
		db.twps[key] = tld
	}
	ld, ok := tld[section]
	if !ok {
		ld = make(Definitions)
		tld[section] = ld
	}
	ld.SetLot(lot, aliquots)
}

// Definition performs the explicit three-level lookup. It returns false if
// any level is absent; defaults are never consulted here.
func (db *DB) Definition(tr domain.TwpRge, section int, lot string) (string, bool) {
	tld, ok := db.twps[tr.Key()]
	if !ok {
		return "", false
	}
	ld, ok := tld[section]
	if !ok {
		return "", false
	}
	def, ok := ld[domain.NormalizeLotName(lot)]
	return def, ok
}

// HasExplicitLots reports whether any explicit lot is defined for the
// section. True disables default lots for that section, even for lot
// numbers the explicit data does not cover.
func (db *DB) HasExplicitLots(tr domain.TwpRge, section int) bool {
	tld, ok := db.twps[tr.Key()]
	if !ok {
		return false
	}
	return len(tld[section]) > 0
}

// TwpRgeKeys returns the canonical keys present in the DB, sorted.
func (db *DB) TwpRgeKeys() []string {
	keys := make([]string, 0, len(db.twps))
	for k := range db.twps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SectionsFor returns the section numbers with definitions under a twprge
// key, ascending.
func (db *DB) SectionsFor(key string) []int {
	tld, ok := db.twps[key]
	if !ok {
		return nil
	}
	secs := make([]int, 0, len(tld))
	for n := range tld {
		secs = append(secs, n)
	}
	sort.Ints(secs)
	return secs
}

// LotsFor returns the lot names defined for (key, section), sorted by lot
// number so export output is deterministic.
func (db *DB) LotsFor(key string, section int) []string {
	tld, ok := db.twps[key]
	if !ok {
		return nil
	}
	ld, ok := tld[section]
	if !ok {
		return nil
	}
	lots := make([]string, 0, len(ld))
	for lot := range ld {
		lots = append(lots, lot)
	}
	sort.Slice(lots, func(i, j int) bool {
		ni, erri := strconv.Atoi(strings.TrimPrefix(lots[i], "L"))
		nj, errj := strconv.Atoi(strings.TrimPrefix(lots[j], "L"))
		if erri == nil && errj == nil {
			return ni < nj
		}
		return lots[i] < lots[j]
	})
	return lots
}
