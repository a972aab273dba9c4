package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/pkg/log"
)

// DefaultTimeout bounds how long an activation waits for the platform.
const DefaultTimeout = 5 * time.Second

// State is the phase of one activation.
type State string

const (
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateFailed   State = "failed"
)

// Failure reasons reported in Result.Reason.
const (
	ReasonUnsupported = "unsupported"
	ReasonTimeout     = "timeout"
	ReasonDenied      = "denied"
	ReasonUnavailable = "position unavailable"
	ReasonCanceled    = "canceled"
)

var (
	// ErrPermissionDenied is returned by a Source when the user refused access.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrPositionUnavailable is returned by a Source that cannot determine a position.
	ErrPositionUnavailable = errors.New("position unavailable")
)

// Source is the platform geolocation capability.
type Source interface {
	Position(ctx context.Context) (weather.Coordinate, error)
}

// Result is the observable state of an activation.
type Result struct {
	State      State              `json:"state"`
	Coordinate weather.Coordinate `json:"coordinate"`
	Reason     string             `json:"reason,omitempty"`
}

// Resolved reports whether the activation produced a position.
func (r Result) Resolved() bool { return r.State == StateResolved }

// Activation is one request for a position. It leaves the pending state exactly once.
type Activation struct {
	once sync.Once
	done chan struct{}

	mu     sync.RWMutex
	result Result
}

func newActivation() *Activation {
	return &Activation{
		done:   make(chan struct{}),
		result: Result{State: StatePending},
	}
}

// settle records the terminal result; later calls are ignored.
func (a *Activation) settle(r Result) bool {
	applied := false
	a.once.Do(func() {
		a.mu.Lock()
		a.result = r
		a.mu.Unlock()
		close(a.done)
		applied = true
	})
	return applied
}

// Done is closed once the activation reaches a terminal state.
func (a *Activation) Done() <-chan struct{} { return a.done }

// Result returns the current state, pending until Done is closed.
func (a *Activation) Result() Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.result
}

// Wait blocks until the activation settles or ctx ends.
func (a *Activation) Wait(ctx context.Context) (Result, error) {
	select {
	case <-a.done:
		return a.Result(), nil
	case <-ctx.Done():
		return a.Result(), ctx.Err()
	}
}

// Provider wraps a Source with a timeout. It never retries; each Activate
// calls the source once.
type Provider struct {
	source  Source
	timeout time.Duration
}

// NewProvider creates a Provider. A nil source means geolocation is unsupported.
func NewProvider(source Source, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{source: source, timeout: timeout}
}

// Supported reports whether a platform source is available.
func (p *Provider) Supported() bool {
	return p.source != nil
}

// Activate starts one position request.
func (p *Provider) Activate(ctx context.Context) *Activation {
	a := newActivation()

	if p.source == nil {
		a.settle(Result{State: StateFailed, Reason: ReasonUnsupported})
		log.Infow("geolocation is not supported")
		return a
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)

	type reading struct {
		coord weather.Coordinate
		err   error
	}
	readings := make(chan reading, 1)

	go func() {
		coord, err := p.source.Position(ctx)
		readings <- reading{coord: coord, err: err}
	}()

	go func() {
		defer cancel()

		var r Result
		select {
		case rd := <-readings:
			switch {
			case rd.err != nil:
				r = Result{State: StateFailed, Reason: classify(rd.err)}
			case !rd.coord.Valid():
				r = Result{State: StateFailed, Reason: ReasonUnavailable}
			default:
				r = Result{State: StateResolved, Coordinate: rd.coord}
			}
		case <-ctx.Done():
			r = Result{State: StateFailed, Reason: classify(ctx.Err())}
		}

		if a.settle(r) {
			log.Infow("geolocation settled", "state", r.State, "reason", r.Reason)
		}
	}()

	return a
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrPermissionDenied):
		return ReasonDenied
	default:
		return ReasonUnavailable
	}
}
