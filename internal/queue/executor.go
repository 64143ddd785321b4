package queue

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/lotdef"
)

// UnresolvedReport lists every lot left unresolved by an execution:
// twprge key → section → lot names in first-request order.
type UnresolvedReport struct {
	GeneratedAt time.Time
	Townships   map[string]map[int][]string
}

// Empty reports whether no lots were left unresolved.
func (r UnresolvedReport) Empty() bool { return len(r.Townships) == 0 }

// Stats counts what one execution did.
type Stats struct {
	ItemsApplied   int
	ItemsSkipped   int
	CellsFilled    int
	LotsResolved   int
	LotsUnresolved int
	AliquotErrors  int
}

// Result is the outcome of draining a MultiPlatQueue.
type Result struct {
	Grids      map[string]*domain.TownshipGrid
	Unresolved UnresolvedReport
	Stats      Stats
}

// Executor drains plat queues into township grids. Execution is pure
// in-memory computation: it never mutates the definition DB, and fills
// are monotonic, so re-executing a queue against the same grids is a
// no-op. Per-item failures (malformed twprge keys, sections outside 1-36,
// unknown cell names, undecodable aliquots) are logged and counted; the
// rest of the queue still executes.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor logging per-item skips to the given
// logger.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute drains the multi-queue into fresh township grids.
func (e *Executor) Execute(mpq *MultiPlatQueue, db *lotdef.DB, allowDefaults bool) Result {
	return e.ExecuteInto(make(map[string]*domain.TownshipGrid), mpq, db, allowDefaults)
}

// ExecuteInto drains the multi-queue into an existing grid map, creating
// township grids on first reference. The same map is returned in the
// result, letting callers accumulate fills across successive executions.
func (e *Executor) ExecuteInto(
	grids map[string]*domain.TownshipGrid,
	mpq *MultiPlatQueue,
	db *lotdef.DB,
	allowDefaults bool,
) Result {
	res := Result{
		Grids: grids,
		Unresolved: UnresolvedReport{
			GeneratedAt: clock.Now(),
			Townships:   make(map[string]map[int][]string),
		},
	}

	for _, key := range mpq.Keys() {
		tr, err := domain.ParseTwpRge(key)
		if err != nil {
			e.logger.Warn("skipping queue with malformed twprge key",
				"key", key, "items", mpq.Queue(key).Len(), "error", err)
			res.Stats.ItemsSkipped += mpq.Queue(key).Len()
			continue
		}

		twp, ok := grids[key]
		if !ok {
			twp = domain.NewTownshipGrid(tr)
			grids[key] = twp
		}

		for _, item := range mpq.Queue(key).Items() {
			if e.executeItem(&res, twp, tr, item, db, allowDefaults) {
				res.Stats.ItemsApplied++
			} else {
				res.Stats.ItemsSkipped++
			}
		}

		e.collectUnresolved(&res, key, twp)
	}

	return res
}

// executeItem applies one fill request, reporting whether it was applied.
func (e *Executor) executeItem(
	res *Result,
	twp *domain.TownshipGrid,
	tr domain.TwpRge,
	item FillRequest,
	db *lotdef.DB,
	allowDefaults bool,
) bool {
	switch fr := item.(type) {
	case TractFill:
		return e.executeTract(res, twp, tr, fr.Tract, db, allowDefaults)

	case GridFill:
		sec, err := twp.Section(fr.Section)
		if err != nil {
			e.logger.Warn("skipping grid merge", "twprge", tr.Key(), "error", err)
			return false
		}
		before := len(sec.FilledQQs())
		sec.Merge(fr.Grid)
		res.Stats.CellsFilled += len(sec.FilledQQs()) - before
		return true

	case DirectQQFill:
		sec, err := twp.Section(fr.Section)
		if err != nil {
			e.logger.Warn("skipping direct fill", "twprge", tr.Key(), "error", err)
			return false
		}
		if sec.Filled(fr.QQ) {
			return true
		}
		if err := sec.FillQQ(fr.QQ); err != nil {
			e.logger.Warn("skipping direct fill", "twprge", tr.Key(), "section", fr.Section, "error", err)
			return false
		}
		res.Stats.CellsFilled++
		return true

	default:
		e.logger.Warn("skipping unknown fill request type", "twprge", tr.Key())
		return false
	}
}

func (e *Executor) executeTract(
	res *Result,
	twp *domain.TownshipGrid,
	tr domain.TwpRge,
	tract domain.ParsedTract,
	db *lotdef.DB,
	allowDefaults bool,
) bool {
	sec, err := twp.Section(tract.Sec)
	if err != nil {
		e.logger.Warn("skipping tract", "twprge", tr.Key(), "error", err)
		return false
	}

	fill := func(qqs []domain.QQ) {
		for _, q := range qqs {
			if sec.Filled(q) {
				continue
			}
			if err := sec.FillQQ(q); err == nil {
				res.Stats.CellsFilled++
			}
		}
	}

	// Aliquot items: a term that fails to decode drops only that item;
	// the rest of the tract still applies.
	for _, aliq := range tract.Aliquots {
		qqs, err := domain.DecomposeAliquot(aliq)
		if err != nil {
			e.logger.Warn("skipping undecodable aliquot",
				"twprge", tr.Key(), "section", tract.Sec, "aliquot", aliq, "error", err)
			res.Stats.AliquotErrors++
			continue
		}
		fill(qqs)
	}

	// Lot items: resolved lots fill cells, everything else lands in the
	// section's unresolved list for the report.
	for _, lot := range tract.Lots {
		qqs, ok := lotdef.Resolve(db, tr, tract.Sec, lot, allowDefaults)
		if !ok {
			sec.AddUnresolvedLot(lot)
			res.Stats.LotsUnresolved++
			continue
		}
		fill(qqs)
		res.Stats.LotsResolved++
	}

	return true
}

func (e *Executor) collectUnresolved(res *Result, key string, twp *domain.TownshipGrid) {
	for _, sec := range twp.FilledSections() {
		lots := sec.UnresolvedLots()
		if len(lots) == 0 {
			continue
		}
		bySec, ok := res.Unresolved.Townships[key]
		if !ok {
			bySec = make(map[int][]string)
			res.Unresolved.Townships[key] = bySec
		}
		bySec[sec.Section] = lots
	}
}
