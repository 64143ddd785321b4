package lotdef

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
)

// csvColumns are the mandatory headers of a lot-definition table. Header
// matching is case-insensitive and extra columns are ignored.
var csvColumns = []string{"twp", "rge", "sec", "lot", "qq"}

// RowError records a skipped import row: its 1-based line number, the raw
// record, and why it was rejected.
type RowError struct {
	Line   int
	Record []string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %s", e.Line, strings.Join(e.Record, ","), e.Reason)
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	RowsApplied int
	RowErrors   []RowError
}

// ImportCSV bulk-loads definitions from a tabular source. Malformed rows
// are skipped and reported in the result while the rest of the batch still
// applies; duplicate (twp,rge,sec,lot) rows overwrite earlier ones. A
// fatal read error (unreadable stream, missing header) aborts with an
// error; the DB keeps whatever rows were applied before the failure.
// Callers wanting all-or-nothing semantics should import into a fresh DB
// and swap on success.
func ImportCSV(db *DB, r io.Reader) (ImportResult, error) {
	var res ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, want := range csvColumns {
		if _, ok := cols[want]; !ok {
			return res, fmt.Errorf("missing column %q in header", want)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			if perr, ok := err.(*csv.ParseError); ok {
				res.RowErrors = append(res.RowErrors, RowError{
					Line: perr.Line, Record: record, Reason: perr.Err.Error(),
				})
				continue
			}
			return res, fmt.Errorf("read row %d: %w", line, err)
		}

		if rerr := importRow(db, cols, record); rerr != nil {
			rerr.Line = line
			res.RowErrors = append(res.RowErrors, *rerr)
			continue
		}
		res.RowsApplied++
	}
	return res, nil
}

func importRow(db *DB, cols map[string]int, record []string) *RowError {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tr, err := domain.ParseTwpRgeParts(field("twp"), field("rge"))
	if err != nil {
		return &RowError{Record: record, Reason: err.Error()}
	}

	sec, err := strconv.Atoi(field("sec"))
	if err != nil || !domain.ValidSection(sec) {
		return &RowError{Record: record, Reason: fmt.Sprintf("invalid sec %q", field("sec"))}
	}

	lot := domain.NormalizeLotName(field("lot"))
	if lot == "" {
		return &RowError{Record: record, Reason: "empty lot"}
	}
	if _, err := strconv.Atoi(strings.TrimPrefix(lot, "L")); err != nil {
		return &RowError{Record: record, Reason: fmt.Sprintf("non-numeric lot %q", field("lot"))}
	}

	qq := field("qq")
	if _, err := domain.DecomposeAliquot(qq); err != nil {
		return &RowError{Record: record, Reason: err.Error()}
	}

	db.SetLot(tr, sec, lot, qq)
	return nil
}

// ImportCSVFile loads definitions from a .csv file on disk.
func ImportCSVFile(db *DB, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open lot definitions: %w", err)
	}
	defer f.Close()
	return ImportCSV(db, f)
}

// ExportCSV writes the DB back out in the tabular format, one row per
// (twprge, sec, lot) in deterministic order. Well-formed rows round-trip
// losslessly through ImportCSV.
func ExportCSV(db *DB, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, key := range db.TwpRgeKeys() {
		tr, err := domain.ParseTwpRge(key)
		if err != nil {
			return fmt.Errorf("malformed twprge key %q in db: %w", key, err)
		}
		for _, sec := range db.SectionsFor(key) {
			for _, lot := range db.LotsFor(key, sec) {
				def, _ := db.Definition(tr, sec, lot)
				row := []string{tr.TwpPart(), tr.RgePart(), strconv.Itoa(sec), lot, def}
				if err := writer.Write(row); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
