package ledger

import (
	"sort"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/trade"
)

type Kind string

const (
	Inserted Kind = "inserted"
	Removed  Kind = "removed"
	Edited   Kind = "edited"
	Replaced Kind = "replaced"
	Loaded   Kind = "loaded"
	Imported Kind = "imported"
)

// Event describes one applied change. Trades is the collection right after
// the change, in canonical order; subscribers may keep it. Seq increases by
// one per change and events are delivered in Seq order.
type Event struct {
	Seq    uint64
	Kind   Kind
	ID     string
	Trades []trade.Record
}

// Subscribe registers fn for every change. Handlers run after the ledger
// lock is released, one event at a time. A handler may mutate the ledger;
// the resulting event is delivered once the current one has reached every
// subscriber.
func (l *Ledger) Subscribe(fn func(Event)) (cancel func()) {
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

// enqueue must be called with l.mu held so queue order is mutation order.
func (l *Ledger) enqueue(ev Event) {
	l.seq++
	ev.Seq = l.seq
	l.pubMu.Lock()
	l.pending = append(l.pending, ev)
	l.pubMu.Unlock()
}

// flush delivers queued events. Only one goroutine drains the queue at a
// time; others return and leave their events to it.
func (l *Ledger) flush() {
	l.pubMu.Lock()
	if l.flushing {
		l.pubMu.Unlock()
		return
	}
	l.flushing = true
	for len(l.pending) > 0 {
		ev := l.pending[0]
		l.pending = l.pending[1:]
		l.pubMu.Unlock()
		l.publish(ev)
		l.pubMu.Lock()
	}
	l.flushing = false
	l.pubMu.Unlock()
}

func (l *Ledger) publish(ev Event) {
	l.subMu.Lock()
	ids := make([]int, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, l.subs[id])
	}
	l.subMu.Unlock()

	for _, fn := range fns {
		l.deliver(fn, ev)
	}
}

func (l *Ledger) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("subscriber panicked", zap.String("kind", string(ev.Kind)), zap.Any("panic", r))
		}
	}()
	fn(ev)
}
