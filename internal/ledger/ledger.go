// Package ledger owns the in-memory trade collection. Every mutation
// revalues the affected records, keeps the canonical order, persists the
// whole collection through a Gateway and notifies subscribers.
package ledger

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/trade"
)

// Gateway loads and saves the whole collection.
type Gateway interface {
	Load(ctx context.Context) ([]trade.Raw, error)
	Save(ctx context.Context, records []trade.Record) error
}

// SaveError is returned when a mutation was applied in memory but could not
// be persisted. The in-memory state is kept.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return fmt.Sprintf("saving trades: %v", e.Err) }

func (e *SaveError) Unwrap() error { return e.Err }

// Patch changes selected source fields of a record. Nil fields are left alone.
type Patch struct {
	Ticker      *string
	Strategy    *string
	OpenDate    *trade.Date
	CloseDate   *trade.Date
	Strike      *float64
	Premium     *float64
	Buyback     *float64
	Qty         *int
	Commissions *float64
}

type Option func(*Ledger)

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

type Ledger struct {
	gw  Gateway
	log *zap.Logger

	mu      sync.Mutex
	records []trade.Record

	seq uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	pubMu    sync.Mutex
	pending  []Event
	flushing bool
}

func New(gw Gateway, opts ...Option) *Ledger {
	l := &Ledger{
		gw:   gw,
		log:  zap.NewNop(),
		subs: make(map[int]func(Event)),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load replaces the collection with what the gateway holds. Unreadable
// storage leaves the collection empty; the error is logged and returned so
// callers can report it, but the ledger stays usable.
func (l *Ledger) Load(ctx context.Context) error {
	raws, loadErr := l.gw.Load(ctx)
	if loadErr != nil {
		l.log.Error("loading trades, starting empty", zap.Error(loadErr))
		raws = nil
	}

	records := make([]trade.Record, 0, len(raws))
	for i, raw := range raws {
		r, err := trade.Normalize(raw)
		if err != nil {
			l.log.Warn("skipping stored trade", zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, r)
	}

	l.mu.Lock()
	l.records = uniqueIDs(records)
	sortRecords(l.records)
	snap := l.snapshot()
	l.enqueue(Event{Kind: Loaded, Trades: snap})
	l.mu.Unlock()

	l.log.Info("trades loaded", zap.Int("count", len(snap)))
	l.flush()
	if loadErr != nil {
		return fmt.Errorf("loading trades: %w", loadErr)
	}
	return nil
}

// Insert values r, adds it and persists the collection. A record without
// an ID gets a fresh one; a colliding ID is replaced. A record without a
// close date is rejected and nothing changes.
func (l *Ledger) Insert(ctx context.Context, r trade.Record) (trade.Record, error) {
	r, err := sanitize(r)
	if err != nil {
		return trade.Record{}, err
	}

	l.mu.Lock()
	if r.ID == "" || l.indexOf(r.ID) >= 0 {
		r.ID = trade.NewID()
	}
	l.records = append(l.records, r)
	sortRecords(l.records)
	snap := l.snapshot()
	err = l.save(ctx, snap)
	l.enqueue(Event{Kind: Inserted, ID: r.ID, Trades: snap})
	l.mu.Unlock()

	l.flush()
	return r, err
}

// Remove deletes the record with id. Unknown ids are a no-op and report false.
func (l *Ledger) Remove(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return false, nil
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	snap := l.snapshot()
	err := l.save(ctx, snap)
	l.enqueue(Event{Kind: Removed, ID: id, Trades: snap})
	l.mu.Unlock()

	l.flush()
	return true, err
}

// Edit applies p to the record with id and revalues it. Unknown ids are a
// no-op and report false. A zero close date in p is ignored.
func (l *Ledger) Edit(ctx context.Context, id string, p Patch) (trade.Record, bool, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return trade.Record{}, false, nil
	}
	r, err := sanitize(p.apply(l.records[i]))
	if err != nil {
		l.mu.Unlock()
		return trade.Record{}, true, err
	}
	l.records[i] = r
	sortRecords(l.records)
	snap := l.snapshot()
	err = l.save(ctx, snap)
	l.enqueue(Event{Kind: Edited, ID: id, Trades: snap})
	l.mu.Unlock()

	l.flush()
	return r, true, err
}

// ReplaceAll adopts records as the whole collection. Each record is
// revalued; empty or duplicate IDs get fresh ones. A record without a close
// date rejects the whole call and the collection is left unchanged.
func (l *Ledger) ReplaceAll(ctx context.Context, records []trade.Record) error {
	next := make([]trade.Record, len(records))
	for i, r := range records {
		v, err := sanitize(r)
		if err != nil {
			return fmt.Errorf("trade at index %d: %w", i, err)
		}
		next[i] = v
	}
	next = uniqueIDs(next)
	sortRecords(next)

	l.mu.Lock()
	l.records = next
	snap := l.snapshot()
	err := l.save(ctx, snap)
	l.enqueue(Event{Kind: Replaced, Trades: snap})
	l.mu.Unlock()

	l.flush()
	return err
}

// ImportResult lists what a bulk import added and which rows it skipped.
type ImportResult struct {
	Inserted []trade.Record
	Errors   []trade.RowError
}

// ImportCSV normalizes every row of a bulk import and inserts the good ones
// as one batch with a single save. Bad rows are collected, never fatal.
func (l *Ledger) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, rowErrs, err := trade.ReadCSV(r)
	res := ImportResult{Errors: rowErrs}
	if err != nil {
		return res, err
	}
	for _, row := range rows {
		rec, err := trade.Normalize(row.Raw)
		if err == nil {
			rec, err = sanitize(rec)
		}
		if err != nil {
			res.Errors = append(res.Errors, trade.RowError{Line: row.Line, Err: err})
			continue
		}
		res.Inserted = append(res.Inserted, rec)
	}
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Line < res.Errors[j].Line })
	if len(res.Inserted) == 0 {
		return res, nil
	}

	l.mu.Lock()
	for i := range res.Inserted {
		if l.indexOf(res.Inserted[i].ID) >= 0 {
			res.Inserted[i].ID = trade.NewID()
		}
		l.records = append(l.records, res.Inserted[i])
	}
	sortRecords(l.records)
	snap := l.snapshot()
	err = l.save(ctx, snap)
	l.enqueue(Event{Kind: Imported, Trades: snap})
	l.mu.Unlock()

	l.log.Info("trades imported", zap.Int("count", len(res.Inserted)), zap.Int("skipped", len(res.Errors)))
	l.flush()
	return res, err
}

// List returns a copy of the collection, newest close date first.
func (l *Ledger) List() []trade.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Ledger) Get(id string) (trade.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		return l.records[i], true
	}
	return trade.Record{}, false
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// save must be called with l.mu held.
func (l *Ledger) save(ctx context.Context, snap []trade.Record) error {
	if err := l.gw.Save(ctx, snap); err != nil {
		l.log.Error("saving trades", zap.Error(err), zap.Int("count", len(snap)))
		return &SaveError{Err: err}
	}
	return nil
}

func (l *Ledger) snapshot() []trade.Record {
	out := make([]trade.Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) indexOf(id string) int {
	for i, r := range l.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (p Patch) apply(r trade.Record) trade.Record {
	if p.Ticker != nil {
		r.Ticker = *p.Ticker
	}
	if p.Strategy != nil {
		r.Strategy = *p.Strategy
	}
	if p.OpenDate != nil {
		r.OpenDate = *p.OpenDate
	}
	if p.CloseDate != nil && !p.CloseDate.IsZero() {
		r.CloseDate = *p.CloseDate
	}
	if p.Strike != nil {
		r.Strike = *p.Strike
	}
	if p.Premium != nil {
		r.Premium = *p.Premium
	}
	if p.Buyback != nil {
		r.Buyback = *p.Buyback
	}
	if p.Qty != nil {
		r.Qty = *p.Qty
	}
	if p.Commissions != nil {
		r.Commissions = *p.Commissions
	}
	return r
}

// sanitize holds every record entering the collection to the rules Normalize
// applies at the boundary: a close date is required and quantity is at least
// one. The returned record is revalued.
func sanitize(r trade.Record) (trade.Record, error) {
	if r.CloseDate.IsZero() {
		return trade.Record{}, &trade.NormalizationError{Field: "closeDate", Err: trade.ErrMissingDate}
	}
	if r.Qty < 1 {
		r.Qty = 1
	}
	return trade.Value(r), nil
}

// sortRecords orders by close date, newest first, keeping insertion order
// among equal dates.
func sortRecords(rs []trade.Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CloseDate.After(rs[j].CloseDate)
	})
}

func uniqueIDs(rs []trade.Record) []trade.Record {
	seen := make(map[string]bool, len(rs))
	for i := range rs {
		if rs[i].ID == "" || seen[rs[i].ID] {
			rs[i].ID = trade.NewID()
		}
		seen[rs[i].ID] = true
	}
	return rs
}
