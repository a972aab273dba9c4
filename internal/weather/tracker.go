package weather

import (
	"context"
	"sync"

	"github.com/i474232898/weathervue/pkg/log"
)

// State is the externally observable state of the most recently started fetch.
// Once Loading is false exactly one of Err and Snapshot is set.
type State struct {
	Generation uint64
	Coordinate Coordinate
	Unit       UnitSystem
	Loading    bool
	Err        error
	Snapshot   *Snapshot
}

// ErrorMessage returns the user-facing failure text, or "" when there is no error.
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return FetchFailedMessage
}

// Tracker owns the fetch state. Each Start supersedes the previous fetch: the
// older request is cancelled and its result, should it still arrive, is dropped.
type Tracker struct {
	fetcher  SnapshotFetcher
	onChange func(State)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State
	closed bool

	wg sync.WaitGroup
}

// NewTracker creates a Tracker. onChange, if not nil, is called with every new
// state in the order the states are applied.
func NewTracker(fetcher SnapshotFetcher, onChange func(State)) *Tracker {
	return &Tracker{
		fetcher:  fetcher,
		onChange: onChange,
	}
}

// Start begins a fetch for coord and unit and returns its generation. After
// Close it starts nothing and returns the current generation.
func (t *Tracker) Start(coord Coordinate, unit UnitSystem) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.gen
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.gen++
	gen := t.gen

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.apply(State{
		Generation: gen,
		Coordinate: coord,
		Unit:       unit,
		Loading:    true,
	})

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		snapshot, err := t.fetcher.Fetch(ctx, coord, unit)
		t.settle(gen, coord, unit, snapshot, err)
	}()

	return gen
}

func (t *Tracker) settle(gen uint64, coord Coordinate, unit UnitSystem, snapshot Snapshot, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		log.Debugw("discarding superseded weather fetch", "generation", gen, "latest", t.gen)
		return
	}

	next := State{
		Generation: gen,
		Coordinate: coord,
		Unit:       unit,
	}
	if err != nil {
		next.Err = err
	} else {
		next.Snapshot = &snapshot
	}
	t.apply(next)
}

// apply must be called with t.mu held so observers see states in order.
func (t *Tracker) apply(s State) {
	t.state = s
	if t.onChange != nil {
		t.onChange(s)
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Wait blocks until every started fetch goroutine has returned.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Close cancels the in-flight fetch and waits for it to return. Later calls to
// Start are ignored.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	// Nothing started before Close may settle afterwards.
	t.gen++
	t.mu.Unlock()
	t.wg.Wait()
}
