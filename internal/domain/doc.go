// Package domain models Public Land Survey System (PLSS) land descriptions
// as discrete occupancy grids.
//
// # Data Source
//
// Land descriptions originate from county land records and are parsed into
// structured tracts by an upstream parser service (free-text parsing is not
// handled here; see the adapter/parser package for the client). Each tract
// identifies a township/range/section plus two lists: aliquot fraction
// strings and lot names.
//
// # PLSS Conventions
//
// Township/Range key:
//
//	"<twp><n|s><rge><e|w>"  →  e.g. "154n97w"
//	means Township 154 North, Range 97 West. Township and range numbers
//	run up to 3 digits; the direction letter is lowercase in canonical keys.
//
// Sections:
//
//	A township is a 6x6 grid of 36 sections numbered in a snake pattern
//	starting at the northeast corner:
//
//	    6   5   4   3   2   1
//	    7   8   9  10  11  12
//	   18  17  16  15  14  13
//	   19  20  21  22  23  24
//	   30  29  28  27  26  25
//	   31  32  33  34  35  36
//
// Quarter-quarters (QQs):
//
//	A standard section subdivides into a 4x4 grid of 16 nominal 40-acre
//	cells named by nested quarter calls, NWNW in the northwest corner
//	through SESE in the southeast. Grid coordinates are (col, row) with
//	NWNW at (0,0), columns running west to east and rows north to south:
//
//	  NWNW (0,0) | NENW (1,0) | NWNE (2,0) | NENE (3,0)
//	  SWNW (0,1) | SENW (1,1) | SWNE (2,1) | SENE (3,1)
//	  NWSW (0,2) | NESW (1,2) | NWSE (2,2) | NESE (3,2)
//	  SWSW (0,3) | SESW (1,3) | SWSE (2,3) | SESE (3,3)
//
// Aliquot strings:
//
//	Comma-separated terms, each a concatenation of direction tokens read
//	right to left: "NE" is the northeast quarter (4 cells), "N2NE" the
//	north half of that quarter (2 cells), "NENE" a single cell, "N2" the
//	north half of the section (8 cells), "ALL" the whole section. Nesting
//	deeper than the quarter-quarter level ("S2NENE") truncates to the QQ.
//	Decomposition is a pure union of terms; see [DecomposeAliquot].
//
// Lots:
//
//	Irregular parcels (riverfront meanders, survey corrections) are named
//	as numbered lots ("L1") whose QQ equivalents are not derivable from
//	the name. The lotdef package maps lots to QQs via explicit definitions
//	or the conventional General Land Office defaults for sections along a
//	township's north and west edges.
//
// Only standard rectangular sections are supported. Sections whose aliquot
// structure deviates from the 4x4 subdivision cannot be represented.
package domain
