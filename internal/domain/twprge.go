package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// twpRe and rgeRe validate the tabular twp/rge column formats,
	// e.g. "154n" and "97w".
	twpRe = regexp.MustCompile(`^(\d{1,3})([ns])$`)
	rgeRe = regexp.MustCompile(`^(\d{1,3})([ew])$`)

	// twprgeRe validates a combined canonical key, e.g. "154n97w".
	twprgeRe = regexp.MustCompile(`^(\d{1,3})([ns])(\d{1,3})([ew])$`)
)

// TwpRge identifies a township/range, the 6x6-mile PLSS grid unit.
type TwpRge struct {
	Twp int
	NS  byte // 'n' or 's'
	Rge int
	EW  byte // 'e' or 'w'
}

// ParseTwpRge parses a canonical township/range key such as "154n97w".
// Input is case-insensitive; surrounding whitespace is trimmed.
func ParseTwpRge(s string) (TwpRge, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	m := twprgeRe.FindStringSubmatch(key)
	if m == nil {
		return TwpRge{}, fmt.Errorf("invalid twprge key %q", s)
	}
	twp, _ := strconv.Atoi(m[1])
	rge, _ := strconv.Atoi(m[3])
	return TwpRge{Twp: twp, NS: m[2][0], Rge: rge, EW: m[4][0]}, nil
}

// ParseTwpRgeParts parses separate twp ("154n") and rge ("97w") columns,
// as they appear in lot-definition tables.
func ParseTwpRgeParts(twp, rge string) (TwpRge, error) {
	tm := twpRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(twp)))
	if tm == nil {
		return TwpRge{}, fmt.Errorf("invalid twp %q", twp)
	}
	rm := rgeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(rge)))
	if rm == nil {
		return TwpRge{}, fmt.Errorf("invalid rge %q", rge)
	}
	t, _ := strconv.Atoi(tm[1])
	r, _ := strconv.Atoi(rm[1])
	return TwpRge{Twp: t, NS: tm[2][0], Rge: r, EW: rm[2][0]}, nil
}

// Key returns the canonical lowercase key, e.g. "154n97w".
func (t TwpRge) Key() string {
	return fmt.Sprintf("%d%c%d%c", t.Twp, t.NS, t.Rge, t.EW)
}

func (t TwpRge) String() string { return t.Key() }

// TwpPart returns the township column form, e.g. "154n".
func (t TwpRge) TwpPart() string { return fmt.Sprintf("%d%c", t.Twp, t.NS) }

// RgePart returns the range column form, e.g. "97w".
func (t TwpRge) RgePart() string { return fmt.Sprintf("%d%c", t.Rge, t.EW) }

// ValidSection reports whether n is a real PLSS section number.
func ValidSection(n int) bool { return n >= 1 && n <= 36 }
