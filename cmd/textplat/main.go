// Command textplat renders township plats from a file of tract records,
// without Kafka. It is the offline counterpart of the service: same lot
// definitions, same resolution rules, ASCII output.
//
// Usage:
//
//	go run ./cmd/textplat \
//	  -tracts data/mock/tract_records.jsonl \
//	  -lotdef data/mock/lot_definitions.csv
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/lotdef"
	"github.com/couchcryptid/plss-plat-etl/internal/pipeline"
	"github.com/couchcryptid/plss-plat-etl/internal/queue"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tractsPath := flag.String("tracts", "", "path to tract records, one JSON object per line")
	lotdefPath := flag.String("lotdef", "", "path to lot definition CSV (optional)")
	allowDefaults := flag.Bool("allow-default-lots", true, "fall back to standard GLO lot layouts when no definition exists")
	flag.Parse()

	if *tractsPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -tracts")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	defs := lotdef.NewDB()
	if *lotdefPath != "" {
		res, err := lotdef.ImportCSVFile(defs, *lotdefPath)
		if err != nil {
			return fmt.Errorf("loading lot definitions: %w", err)
		}
		for _, re := range res.RowErrors {
			log.Printf("lotdef line %d skipped: %s", re.Line, re.Reason)
		}
		log.Printf("lot definitions: %d rows applied, %d skipped", res.RowsApplied, len(res.RowErrors))
	}

	mpq, err := queueTracts(*tractsPath, logger)
	if err != nil {
		return err
	}

	ex := queue.NewExecutor(logger)
	res := ex.Execute(mpq, defs, *allowDefaults)

	printPlats(res)
	log.Printf("items applied=%d skipped=%d, cells filled=%d, lots resolved=%d unresolved=%d",
		res.Stats.ItemsApplied, res.Stats.ItemsSkipped, res.Stats.CellsFilled,
		res.Stats.LotsResolved, res.Stats.LotsUnresolved)
	return nil
}

// queueTracts reads one tract record per line and queues everything that
// transforms cleanly. Bad lines are reported and skipped.
func queueTracts(path string, logger *slog.Logger) (*queue.MultiPlatQueue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracts: %w", err)
	}
	defer f.Close()

	tfm := pipeline.NewTransformer(nil, logger)
	mpq := queue.NewMultiPlatQueue()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		tracts, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(text)})
		if err != nil {
			log.Printf("line %d skipped: %v", line, err)
			continue
		}
		for _, tract := range tracts {
			mpq.AddTract(tract)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tracts: %w", err)
	}
	return mpq, nil
}

func printPlats(res queue.Result) {
	for _, key := range sortedKeys(res.Grids) {
		twp := res.Grids[key]
		fmt.Printf("Township %s\n", key)
		for _, sec := range twp.FilledSections() {
			fmt.Printf("\nSection %02d\n%s\n", sec.Section, sec.TextPlat())
			if lots := sec.UnresolvedLots(); len(lots) > 0 {
				fmt.Printf("Undefined lots: %s\n", strings.Join(lots, ", "))
			}
		}
		fmt.Println()
	}
}

func sortedKeys(grids map[string]*domain.TownshipGrid) []string {
	keys := make([]string, 0, len(grids))
	for k := range grids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
