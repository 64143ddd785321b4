// Package queue collects fill requests for township plats and drains them
// into occupancy grids.
//
// A PlatQueue is an ordered list of fill requests destined for one
// township; it does not know which township it represents. A
// MultiPlatQueue keys PlatQueues by canonical twprge and is the
// aggregation point for descriptions spanning several townships. Fills
// are monotonic unions, so replaying a queue is a no-op on already-filled
// cells.
package queue

import (
	"errors"
	"sort"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
)

// FillRequest is one unit of work for the executor: a parsed tract, a
// pre-built section grid to merge, or a single direct cell fill.
type FillRequest interface {
	fillRequest()
}

// TractFill plats a parsed tract's aliquots and lots.
type TractFill struct {
	Tract domain.ParsedTract
}

// GridFill merges an already-built section grid at a section number.
type GridFill struct {
	Grid    *domain.SectionGrid
	Section int
}

// DirectQQFill marks one named cell of one section filled.
type DirectQQFill struct {
	Section int
	QQ      domain.QQ
}

func (TractFill) fillRequest()    {}
func (GridFill) fillRequest()     {}
func (DirectQQFill) fillRequest() {}

// PlatQueue is an ordered list of fill requests for a single township.
type PlatQueue struct {
	items []FillRequest
}

// NewPlatQueue creates an empty queue.
func NewPlatQueue() *PlatQueue {
	return &PlatQueue{}
}

// Add appends a fill request.
func (q *PlatQueue) Add(fr FillRequest) {
	q.items = append(q.items, fr)
}

// Absorb appends another queue's requests. The absorbed queue is not
// modified.
func (q *PlatQueue) Absorb(other *PlatQueue) {
	q.items = append(q.items, other.items...)
}

// Items returns the queued requests in order.
func (q *PlatQueue) Items() []FillRequest { return q.items }

// Len returns the number of queued requests.
func (q *PlatQueue) Len() int { return len(q.items) }

// ErrNoTwpRge is returned when a grid or direct fill is added to a
// MultiPlatQueue without a township key: unlike a tract, a bare grid
// carries no township of its own, so its placement would be ambiguous.
var ErrNoTwpRge = errors.New("twprge key required")

// MultiPlatQueue maps canonical twprge keys to PlatQueues.
type MultiPlatQueue struct {
	queues map[string]*PlatQueue
}

// NewMultiPlatQueue creates an empty multi-queue.
func NewMultiPlatQueue() *MultiPlatQueue {
	return &MultiPlatQueue{queues: make(map[string]*PlatQueue)}
}

// AddTract routes a tract to the queue for its own township/range.
func (m *MultiPlatQueue) AddTract(tract domain.ParsedTract) {
	m.queueFor(tract.TwpRge.Key()).Add(TractFill{Tract: tract})
}

// AddTractAt routes a tract to an explicit township key, overriding the
// tract's own township/range.
func (m *MultiPlatQueue) AddTractAt(tr domain.TwpRge, tract domain.ParsedTract) {
	m.queueFor(tr.Key()).Add(TractFill{Tract: tract})
}

// AddGrid queues a section grid merge. The township key is mandatory.
func (m *MultiPlatQueue) AddGrid(tr *domain.TwpRge, grid *domain.SectionGrid, section int) error {
	if tr == nil {
		return ErrNoTwpRge
	}
	m.queueFor(tr.Key()).Add(GridFill{Grid: grid, Section: section})
	return nil
}

// AddDirectQQ queues a single-cell fill. The township key is mandatory.
func (m *MultiPlatQueue) AddDirectQQ(tr *domain.TwpRge, section int, q domain.QQ) error {
	if tr == nil {
		return ErrNoTwpRge
	}
	m.queueFor(tr.Key()).Add(DirectQQFill{Section: section, QQ: q})
	return nil
}

// Absorb merges another multi-queue into this one, township by township.
func (m *MultiPlatQueue) Absorb(other *MultiPlatQueue) {
	for key, pq := range other.queues {
		m.queueFor(key).Absorb(pq)
	}
}

// Keys returns the township keys with queued work, sorted for
// deterministic execution.
func (m *MultiPlatQueue) Keys() []string {
	keys := make([]string, 0, len(m.queues))
	for k := range m.queues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Queue returns the PlatQueue for a key, or nil if none exists.
func (m *MultiPlatQueue) Queue(key string) *PlatQueue { return m.queues[key] }

// Len returns the total number of queued requests across all townships.
func (m *MultiPlatQueue) Len() int {
	n := 0
	for _, pq := range m.queues {
		n += pq.Len()
	}
	return n
}

func (m *MultiPlatQueue) queueFor(key string) *PlatQueue {
	pq, ok := m.queues[key]
	if !ok {
		pq = NewPlatQueue()
		m.queues[key] = pq
	}
	return pq
}
