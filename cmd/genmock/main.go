// Command genmock generates deterministic mock fixtures: a file of tract
// records, a lot definition CSV, and the plat snapshots the engine
// produces from them. It runs the actual resolution code under a fixed
// clock so the expected output tracks real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -tracts-out data/mock/tract_records.jsonl \
//	  -lotdef-out data/mock/lot_definitions.csv \
//	  -snapshots-out data/mock/plat_snapshots.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/lotdef"
	"github.com/couchcryptid/plss-plat-etl/internal/queue"
	"github.com/jonboulle/clockwork"
)

var generatedAt = time.Date(2026, time.January, 15, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tractsOut := flag.String("tracts-out", "", "output path for tract records fixture")
	lotdefOut := flag.String("lotdef-out", "", "output path for lot definition CSV fixture")
	snapshotsOut := flag.String("snapshots-out", "", "output path for expected plat snapshots")
	flag.Parse()

	if *tractsOut == "" || *lotdefOut == "" || *snapshotsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -tracts-out, -lotdef-out, -snapshots-out")
	}

	queue.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer queue.SetClock(nil)

	records := mockTractRecords()
	defs := mockLotDefinitions()

	if err := writeJSONL(*tractsOut, records); err != nil {
		return fmt.Errorf("writing tract fixture: %w", err)
	}
	log.Printf("wrote %d tract records: %s", len(records), *tractsOut)

	if err := writeCSV(*lotdefOut, defs); err != nil {
		return fmt.Errorf("writing lotdef fixture: %w", err)
	}
	log.Printf("wrote lot definitions: %s", *lotdefOut)

	snaps, err := expectedSnapshots(records, defs)
	if err != nil {
		return fmt.Errorf("generating snapshots: %w", err)
	}
	if err := writeJSON(*snapshotsOut, snaps); err != nil {
		return fmt.Errorf("writing snapshot fixture: %w", err)
	}
	log.Printf("wrote %d snapshots: %s", len(snaps), *snapshotsOut)
	return nil
}

// mockTractRecords covers the interesting resolution paths: plain
// aliquots, nested halves, default lots in a north-row section, explicit
// definitions overriding defaults, and an unresolvable lot.
func mockTractRecords() []domain.RawTractRecord {
	return []domain.RawTractRecord{
		{Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"NE"}, Desc: "NE/4"},
		{Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"S2SW"}, Desc: "S/2SW/4"},
		{Twp: "154n", Rge: "97w", Sec: 1, Lots: []string{"L1", "L2", "L3"}, Aliquots: []string{"S2N2"}, Desc: "Lots 1 - 3, S/2N/2"},
		{Twp: "154n", Rge: "97w", Sec: 6, Lots: []string{"L7"}, Desc: "Lot 7"},
		{Twp: "154n", Rge: "97w", Sec: 25, Lots: []string{"L5"}, Desc: "Lot 5"},
		{Twp: "1s", Rge: "7e", Sec: 36, Aliquots: []string{"ALL"}, Desc: "All of section 36"},
		{Twp: "1s", Rge: "7e", Sec: 31, Lots: []string{"L4"}, Aliquots: []string{"E2SW"}, Desc: "Lot 4, E/2SW/4"},
	}
}

// mockLotDefinitions gives section 25 an explicit lot so the fixture
// exercises the definition lookup next to the default tables.
func mockLotDefinitions() *lotdef.DB {
	db := lotdef.NewDB()
	tr, err := domain.ParseTwpRge("154n97w")
	if err != nil {
		panic(err)
	}
	db.SetLot(tr, 25, "L5", "NWNW")
	return db
}

func expectedSnapshots(records []domain.RawTractRecord, defs *lotdef.DB) ([]domain.PlatSnapshot, error) {
	mpq := queue.NewMultiPlatQueue()
	for _, rec := range records {
		tr, err := domain.ParseTwpRgeParts(rec.Twp, rec.Rge)
		if err != nil {
			return nil, err
		}
		mpq.AddTract(domain.ParsedTract{
			TwpRge:   tr,
			Sec:      rec.Sec,
			Aliquots: rec.Aliquots,
			Lots:     rec.Lots,
			Desc:     rec.Desc,
		})
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	res := queue.NewExecutor(logger).Execute(mpq, defs, true)

	snaps := make([]domain.PlatSnapshot, 0, len(res.Grids))
	for _, key := range mpq.Keys() {
		snaps = append(snaps, domain.SnapshotTownship(res.Grids[key], generatedAt))
	}
	return snaps, nil
}

func writeJSONL(path string, records []domain.RawTractRecord) error {
	return writeFile(path, func(f io.Writer) error {
		enc := json.NewEncoder(f)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, db *lotdef.DB) error {
	return writeFile(path, func(f io.Writer) error {
		return lotdef.ExportCSV(db, f)
	})
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(f io.Writer) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = f.Write(data)
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
