package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionGrid(t *testing.T) {
	t.Run("fill is idempotent", func(t *testing.T) {
		g := NewSectionGrid(14)
		require.NoError(t, g.FillQQ(NENE))
		require.NoError(t, g.FillQQ(NENE))
		assert.Equal(t, []QQ{NENE}, g.FilledQQs())
		assert.True(t, g.Filled(NENE))
		assert.False(t, g.Filled(NWNW))
	})

	t.Run("rejects names outside the vocabulary", func(t *testing.T) {
		g := NewSectionGrid(14)
		require.Error(t, g.FillQQ(QQ("NENENE")))
		require.Error(t, g.FillQQs([]QQ{NENE, QQ("bogus")}))
		assert.Empty(t, g.FilledQQs(), "no cell may be created on a failed fill")
	})

	t.Run("unresolved lots keep insertion order without duplicates", func(t *testing.T) {
		g := NewSectionGrid(1)
		g.AddUnresolvedLot("L2")
		g.AddUnresolvedLot("L1")
		g.AddUnresolvedLot("l2")
		g.AddUnresolvedLot("1")
		assert.Equal(t, []string{"L2", "L1"}, g.UnresolvedLots())
	})

	t.Run("merge unions fills and unresolved lots", func(t *testing.T) {
		a := NewSectionGrid(1)
		require.NoError(t, a.FillQQs([]QQ{NENE, NWNE}))
		a.AddUnresolvedLot("L5")

		b := NewSectionGrid(1)
		require.NoError(t, b.FillQQs([]QQ{NWNE, SWSW}))
		b.AddUnresolvedLot("L5")
		b.AddUnresolvedLot("L6")

		a.Merge(b)
		assert.Equal(t, []QQ{NWNE, NENE, SWSW}, a.FilledQQs())
		assert.Equal(t, []string{"L5", "L6"}, a.UnresolvedLots())

		// The source grid is untouched.
		assert.Equal(t, []QQ{NWNE, SWSW}, b.FilledQQs())
	})

	t.Run("text plat marks filled cells", func(t *testing.T) {
		g := NewSectionGrid(1)
		require.NoError(t, g.FillQQ(NWNW))
		plat := g.TextPlat()
		lines := strings.Split(plat, "\n")
		require.Greater(t, len(lines), 2)
		assert.True(t, strings.HasPrefix(lines[1], "|XXXX|"), "NWNW is the first cell of the first row: %q", lines[1])
		assert.NotContains(t, lines[len(lines)-2], "X")
	})
}

func TestTownshipGrid(t *testing.T) {
	tr, err := ParseTwpRge("154n97w")
	require.NoError(t, err)

	t.Run("sections create lazily and persist", func(t *testing.T) {
		twp := NewTownshipGrid(tr)
		g, err := twp.Section(14)
		require.NoError(t, err)
		require.NoError(t, g.FillQQ(NENE))

		again, err := twp.Section(14)
		require.NoError(t, err)
		assert.Same(t, g, again)
		assert.True(t, again.Filled(NENE))
	})

	t.Run("rejects section numbers outside 1-36", func(t *testing.T) {
		twp := NewTownshipGrid(tr)
		for _, n := range []int{0, 37, -1} {
			_, err := twp.Section(n)
			assert.Error(t, err, "section %d", n)
		}
	})

	t.Run("filled sections in ascending order", func(t *testing.T) {
		twp := NewTownshipGrid(tr)
		for _, n := range []int{36, 1, 14} {
			g, err := twp.Section(n)
			require.NoError(t, err)
			require.NoError(t, g.FillQQ(SESE))
		}
		empty, err := twp.Section(20)
		require.NoError(t, err)
		_ = empty

		var nums []int
		for _, g := range twp.FilledSections() {
			nums = append(nums, g.Section)
		}
		assert.Equal(t, []int{1, 14, 36}, nums)
	})
}

func TestSectionCoord(t *testing.T) {
	// Sections snake west from the NE corner: 1 is top-right, 6 top-left,
	// 7 under 6, 12 under 1, 31 bottom-left, 36 bottom-right.
	cases := []struct {
		sec, col, row int
	}{
		{1, 5, 0}, {6, 0, 0},
		{7, 0, 1}, {12, 5, 1},
		{13, 5, 2}, {18, 0, 2},
		{19, 0, 3}, {24, 5, 3},
		{25, 5, 4}, {30, 0, 4},
		{31, 0, 5}, {36, 5, 5},
	}
	for _, c := range cases {
		col, row, err := SectionCoord(c.sec)
		require.NoError(t, err)
		assert.Equal(t, c.col, col, "section %d col", c.sec)
		assert.Equal(t, c.row, row, "section %d row", c.sec)
	}

	_, _, err := SectionCoord(0)
	assert.Error(t, err)
}
