package domain

import "fmt"

// QQ names one of the 16 quarter-quarter cells of a standard section.
type QQ string

// The 16 canonical quarter-quarter names. No other QQ value is valid.
const (
	NWNW QQ = "NWNW"
	NENW QQ = "NENW"
	NWNE QQ = "NWNE"
	NENE QQ = "NENE"
	SWNW QQ = "SWNW"
	SENW QQ = "SENW"
	SWNE QQ = "SWNE"
	SENE QQ = "SENE"
	NWSW QQ = "NWSW"
	NESW QQ = "NESW"
	NWSE QQ = "NWSE"
	NESE QQ = "NESE"
	SWSW QQ = "SWSW"
	SESW QQ = "SESW"
	SWSE QQ = "SWSE"
	SESE QQ = "SESE"
)

// AllQQs lists the canonical QQs in grid order, NWNW (0,0) through SESE (3,3).
// Callers must not mutate it.
var AllQQs = []QQ{
	NWNW, NENW, NWNE, NENE,
	SWNW, SENW, SWNE, SENE,
	NWSW, NESW, NWSE, NESE,
	SWSW, SESW, SWSE, SESE,
}

var qqCoords = map[QQ][2]int{
	NWNW: {0, 0}, NENW: {1, 0}, NWNE: {2, 0}, NENE: {3, 0},
	SWNW: {0, 1}, SENW: {1, 1}, SWNE: {2, 1}, SENE: {3, 1},
	NWSW: {0, 2}, NESW: {1, 2}, NWSE: {2, 2}, NESE: {3, 2},
	SWSW: {0, 3}, SESW: {1, 3}, SWSE: {2, 3}, SESE: {3, 3},
}

var qqByCoord = func() map[[2]int]QQ {
	m := make(map[[2]int]QQ, len(qqCoords))
	for q, c := range qqCoords {
		m[c] = q
	}
	return m
}()

// ValidQQ reports whether s is one of the 16 canonical QQ names.
func ValidQQ(s string) bool {
	_, ok := qqCoords[QQ(s)]
	return ok
}

// Coord returns the (col, row) grid position of the QQ, both in [0,3].
func (q QQ) Coord() (col, row int) {
	c, ok := qqCoords[q]
	if !ok {
		panic(fmt.Sprintf("not a canonical QQ: %q", string(q)))
	}
	return c[0], c[1]
}

// QQAt returns the QQ at grid position (col, row).
// ok is false when either coordinate is outside [0,3].
func QQAt(col, row int) (QQ, bool) {
	q, ok := qqByCoord[[2]int{col, row}]
	return q, ok
}
