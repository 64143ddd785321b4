package lotdef

import (
	"testing"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTwpRge(t *testing.T, key string) domain.TwpRge {
	t.Helper()
	tr, err := domain.ParseTwpRge(key)
	require.NoError(t, err)
	return tr
}

func TestDB(t *testing.T) {
	tr := mustTwpRge(t, "154n97w")

	t.Run("three-level lookup", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 1, "L1", "NWNE")

		def, ok := db.Definition(tr, 1, "L1")
		require.True(t, ok)
		assert.Equal(t, "NWNE", def)

		_, ok = db.Definition(tr, 1, "L2")
		assert.False(t, ok)
		_, ok = db.Definition(tr, 2, "L1")
		assert.False(t, ok)
		_, ok = db.Definition(mustTwpRge(t, "1s7e"), 1, "L1")
		assert.False(t, ok)
	})

	t.Run("last write wins for duplicate keys", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 1, "L1", "NENE")
		db.SetLot(tr, 1, "L1", "NWNE")

		def, ok := db.Definition(tr, 1, "L1")
		require.True(t, ok)
		assert.Equal(t, "NWNE", def, "definitions overwrite, never merge")
	})

	t.Run("lot names normalize on both ends", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 1, "1", "NENE")

		def, ok := db.Definition(tr, 1, "l1")
		require.True(t, ok)
		assert.Equal(t, "NENE", def)
	})

	t.Run("HasExplicitLots", func(t *testing.T) {
		db := NewDB()
		assert.False(t, db.HasExplicitLots(tr, 1))

		db.SetLot(tr, 1, "L5", "SWNW")
		assert.True(t, db.HasExplicitLots(tr, 1))
		assert.False(t, db.HasExplicitLots(tr, 2))
		assert.False(t, db.HasExplicitLots(mustTwpRge(t, "1s7e"), 1))
	})

	t.Run("enumeration is deterministic", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 6, "L7", "SWSW")
		db.SetLot(tr, 6, "L2", "NWNE")
		db.SetLot(tr, 6, "L10", "SESW")
		db.SetLot(tr, 1, "L1", "NENE")
		db.SetLot(mustTwpRge(t, "1s7e"), 31, "L4", "SWSW")

		assert.Equal(t, []string{"154n97w", "1s7e"}, db.TwpRgeKeys())
		assert.Equal(t, []int{1, 6}, db.SectionsFor("154n97w"))
		assert.Equal(t, []string{"L2", "L7", "L10"}, db.LotsFor("154n97w", 6), "numeric lot order, not lexical")
	})
}

func TestDefaultLotQQ(t *testing.T) {
	t.Run("north row sections 1-5", func(t *testing.T) {
		for sec := 1; sec <= 5; sec++ {
			for lot, want := range map[string]domain.QQ{
				"L1": domain.NENE, "L2": domain.NWNE, "L3": domain.NENW, "L4": domain.NWNW,
			} {
				q, ok := DefaultLotQQ(sec, lot)
				require.True(t, ok, "sec %d %s", sec, lot)
				assert.Equal(t, want, q, "sec %d %s", sec, lot)
			}
			_, ok := DefaultLotQQ(sec, "L5")
			assert.False(t, ok, "sections 1-5 carry four lots")
		}
	})

	t.Run("northwest corner section 6", func(t *testing.T) {
		for lot, want := range map[string]domain.QQ{
			"L1": domain.NENE, "L2": domain.NWNE, "L3": domain.NENW, "L4": domain.NWNW,
			"L5": domain.SWNW, "L6": domain.NWSW, "L7": domain.SWSW,
		} {
			q, ok := DefaultLotQQ(6, lot)
			require.True(t, ok, lot)
			assert.Equal(t, want, q, lot)
		}
	})

	t.Run("west column sections", func(t *testing.T) {
		for _, sec := range []int{7, 18, 19, 30, 31} {
			for lot, want := range map[string]domain.QQ{
				"L1": domain.NWNW, "L2": domain.SWNW, "L3": domain.NWSW, "L4": domain.SWSW,
			} {
				q, ok := DefaultLotQQ(sec, lot)
				require.True(t, ok, "sec %d %s", sec, lot)
				assert.Equal(t, want, q, "sec %d %s", sec, lot)
			}
		}
	})

	t.Run("interior sections carry no default lots", func(t *testing.T) {
		for _, sec := range []int{8, 14, 16, 22, 29, 36} {
			_, ok := DefaultLotQQ(sec, "L1")
			assert.False(t, ok, "sec %d", sec)
		}
	})

	t.Run("accepts bare lot numbers", func(t *testing.T) {
		q, ok := DefaultLotQQ(1, "1")
		require.True(t, ok)
		assert.Equal(t, domain.NENE, q)
	})
}

func TestResolve(t *testing.T) {
	tr := mustTwpRge(t, "154n97w")

	t.Run("explicit definition decomposes", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 14, "L4", "E2NW,SWNW")

		qqs, ok := Resolve(db, tr, 14, "L4", false)
		require.True(t, ok)
		assert.ElementsMatch(t, []domain.QQ{domain.NENW, domain.SENW, domain.SWNW}, qqs)
	})

	t.Run("default fallback when section has no explicit lots", func(t *testing.T) {
		db := NewDB()
		qqs, ok := Resolve(db, tr, 1, "L1", true)
		require.True(t, ok)
		assert.Equal(t, []domain.QQ{domain.NENE}, qqs)
	})

	t.Run("defaults disabled without opt-in", func(t *testing.T) {
		db := NewDB()
		_, ok := Resolve(db, tr, 1, "L1", false)
		assert.False(t, ok)
	})

	t.Run("any explicit lot disables defaults for the whole section", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 1, "L5", "SWNW")

		// L1 has a default (NENE) but the section has explicit data, so
		// the un-covered lot stays unresolved.
		_, ok := Resolve(db, tr, 1, "L1", true)
		assert.False(t, ok)

		// The explicit lot itself still resolves.
		qqs, ok := Resolve(db, tr, 1, "L5", true)
		require.True(t, ok)
		assert.Equal(t, []domain.QQ{domain.SWNW}, qqs)
	})

	t.Run("explicit lots in one section leave other sections on defaults", func(t *testing.T) {
		db := NewDB()
		db.SetLot(tr, 1, "L5", "SWNW")

		qqs, ok := Resolve(db, tr, 2, "L1", true)
		require.True(t, ok)
		assert.Equal(t, []domain.QQ{domain.NENE}, qqs)
	})

	t.Run("undecodable explicit definition is unresolved", func(t *testing.T) {
		db := NewDB()
		db.twps["154n97w"] = TwpDefinitions{1: Definitions{"L1": "XQXQ"}}

		_, ok := Resolve(db, tr, 1, "L1", true)
		assert.False(t, ok, "a decode error never falls back to defaults")
	})

	t.Run("unknown lot in unknown section", func(t *testing.T) {
		db := NewDB()
		_, ok := Resolve(db, tr, 14, "L9", true)
		assert.False(t, ok, "interior sections have no defaults")
	})
}
