// Package journal keeps an append-only audit trail of ledger changes.
package journal

import (
	"time"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/trade"
)

// Entry is one journal line.
type Entry struct {
	Time        time.Time     `json:"time"`
	Seq         uint64        `json:"seq"`
	Kind        ledger.Kind   `json:"kind"`
	ID          string        `json:"id,omitempty"`
	Trade       *trade.Record `json:"trade,omitempty"`
	Trades      int           `json:"trades"`
	TotalProfit *float64      `json:"totalProfit"`
}

// Journal writes an Entry for every ledger event it receives.
type Journal struct {
	w   *Writer
	log *zap.Logger
	now func() time.Time
}

func New(dir string, log *zap.Logger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := NewWriter(dir, "ledger")
	if err != nil {
		return nil, err
	}
	return &Journal{w: w, log: log, now: time.Now}, nil
}

// Record is a ledger subscriber. Write failures are logged, never returned,
// so the journal cannot affect a mutation.
func (j *Journal) Record(ev ledger.Event) {
	e := Entry{
		Time:   j.now().UTC(),
		Seq:    ev.Seq,
		Kind:   ev.Kind,
		ID:     ev.ID,
		Trades: len(ev.Trades),
	}
	var total float64
	for i := range ev.Trades {
		total += ev.Trades[i].Net
		if ev.ID != "" && ev.Trades[i].ID == ev.ID {
			r := ev.Trades[i]
			e.Trade = &r
		}
	}
	e.TotalProfit = trade.FiniteOrNil(total)

	if err := j.w.Write(e); err != nil {
		j.log.Error("writing journal entry", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

// Path is the file today's entries go to.
func (j *Journal) Path() string { return j.w.PathFor(j.now()) }

func (j *Journal) Close() error { return j.w.Close() }
