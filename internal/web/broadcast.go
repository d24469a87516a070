package web

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"replytree/internal/model"
	"replytree/internal/store"
)

type threadHub struct {
	mu   sync.Mutex
	subs map[chan model.Event]struct{}
}

func newThreadHub() *threadHub {
	return &threadHub{subs: map[chan model.Event]struct{}{}}
}

func (h *threadHub) subscribe() (ch chan model.Event, cancel func()) {
	ch = make(chan model.Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

// broadcast never blocks: a subscriber whose buffer is full misses the event and catches
// up from the next one (each event carries the thread version).
func (h *threadHub) broadcast(ev model.Event) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *threadHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// threadBroadcaster tails the events table and fans new events out to the hub of their
// thread. Polling covers writes from other processes sharing the database.
type threadBroadcaster struct {
	st       *store.Store
	log      *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	hubs    map[string]*threadHub
	lastSeq int64
	primed  bool

	poke chan struct{}
}

func newThreadBroadcaster(st *store.Store, log *slog.Logger, interval time.Duration) *threadBroadcaster {
	return &threadBroadcaster{
		st:       st,
		log:      log,
		interval: interval,
		hubs:     map[string]*threadHub{},
		poke:     make(chan struct{}, 1),
	}
}

func (b *threadBroadcaster) hubFor(threadID string) *threadHub {
	threadID = strings.TrimSpace(threadID)
	b.mu.Lock()
	h := b.hubs[threadID]
	if h == nil {
		h = newThreadHub()
		b.hubs[threadID] = h
	}
	b.mu.Unlock()
	return h
}

// subscribe registers a subscriber on threadID's hub. The returned cancel drops the hub once
// its last subscriber leaves.
func (b *threadBroadcaster) subscribe(threadID string) (<-chan model.Event, func()) {
	threadID = strings.TrimSpace(threadID)
	b.mu.Lock()
	h := b.hubs[threadID]
	if h == nil {
		h = newThreadHub()
		b.hubs[threadID] = h
	}
	ch, unsubscribe := h.subscribe()
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		unsubscribe()
		if h.size() == 0 && b.hubs[threadID] == h {
			delete(b.hubs, threadID)
		}
		b.mu.Unlock()
	}
}

func (b *threadBroadcaster) hubCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hubs)
}

// nudge asks the watch loop to poll now instead of waiting for the next tick.
func (b *threadBroadcaster) nudge() {
	select {
	case b.poke <- struct{}{}:
	default:
	}
}

// prime starts the cursor at the current end of the log so old events are not replayed.
func (b *threadBroadcaster) prime(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.primed {
		return nil
	}
	seq, err := b.st.LatestEventSeq(ctx)
	if err != nil {
		return err
	}
	b.lastSeq = seq
	b.primed = true
	return nil
}

// poll broadcasts every event after the cursor and returns how many it sent.
func (b *threadBroadcaster) poll(ctx context.Context) (int, error) {
	if err := b.prime(ctx); err != nil {
		return 0, err
	}
	b.mu.Lock()
	after := b.lastSeq
	b.mu.Unlock()

	evs, err := b.st.ListEvents(ctx, store.EventFilter{AfterSeq: after, Limit: 500})
	if err != nil {
		return 0, err
	}
	for _, ev := range evs {
		b.hubFor(ev.ThreadID).broadcast(ev)
		b.mu.Lock()
		if ev.Seq > b.lastSeq {
			b.lastSeq = ev.Seq
		}
		b.mu.Unlock()
	}
	return len(evs), nil
}

func (b *threadBroadcaster) watchLoop(ctx context.Context) error {
	if err := b.prime(ctx); err != nil {
		return err
	}
	t := time.NewTicker(b.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case <-b.poke:
		}
		n, err := b.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.log.Warn("event poll failed", "err", err)
			continue
		}
		if n > 0 {
			b.log.Debug("broadcast events", "count", n)
		}
	}
}
