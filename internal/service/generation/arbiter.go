// Package generation bridges a generation request to the streaming chat
// provider and reduces the stream to exactly one outcome.
package generation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"ai-travel-planner/internal/failure"
)

// State is the lifecycle state of an Arbiter.
type State int

const (
	// StateOpen accepts fragments and any resolving event.
	StateOpen State = iota
	// StateResolved is terminal. Every producer call is a no-op.
	StateResolved
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateResolved:
		return "RESOLVED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Event names the producer that resolved an Arbiter.
type Event string

const (
	EventNone      Event = ""
	EventTerminal  Event = "terminal"
	EventTransport Event = "transport_error"
	EventClosed    Event = "closed"
	EventCancelled Event = "cancelled"
)

// Outcome is the single result of a generation. Exactly one of Text and Err
// is meaningful: Err is nil on success.
type Outcome struct {
	Text  string
	Err   error
	Event Event
}

// OK reports whether the outcome carries text.
func (o Outcome) OK() bool { return o.Err == nil }

// Arbiter accumulates stream fragments and resolves exactly once.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	OPEN ──Append()──→ OPEN
//	  │
//	  └── Terminal() | Fail() | Closed() | Cancel() ──→ RESOLVED (first call wins)
//
// Rules:
//   - OPEN: fragments are concatenated in call order
//   - RESOLVED: Append is ignored, resolvers return false, Done is closed
type Arbiter struct {
	mu      sync.Mutex
	state   State
	text    strings.Builder
	outcome Outcome
	done    chan struct{}
}

// NewArbiter creates an arbiter in OPEN state.
func NewArbiter() *Arbiter {
	return &Arbiter{
		state: StateOpen,
		done:  make(chan struct{}),
	}
}

// State returns the current state.
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Append adds a fragment to the accumulated text. It returns false once the
// arbiter is resolved.
func (a *Arbiter) Append(fragment string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateOpen {
		return false
	}
	a.text.WriteString(fragment)
	return true
}

// Terminal resolves with the accumulated text. A terminal event with nothing
// accumulated resolves with an empty-result failure.
func (a *Arbiter) Terminal() bool {
	return a.resolve(EventTerminal, func(text string) error {
		if text == "" {
			return failure.Newf(failure.KindEmptyResult, "generation.Terminal", "stream finished without content")
		}
		return nil
	})
}

// Fail resolves with a transport failure wrapping err.
func (a *Arbiter) Fail(err error) bool {
	if err == nil {
		err = errors.New("unknown transport error")
	}
	return a.resolve(EventTransport, func(string) error {
		return failure.New(failure.KindTransport, "generation.Fail", err)
	})
}

// Closed resolves after the connection ended without a terminal frame.
// Accumulated text is kept as a best-effort result.
func (a *Arbiter) Closed() bool {
	return a.resolve(EventClosed, func(text string) error {
		if text == "" {
			return failure.Newf(failure.KindEmptyResult, "generation.Closed", "connection closed before any content")
		}
		return nil
	})
}

// Cancel resolves with a cancellation failure carrying cause.
func (a *Arbiter) Cancel(cause error) bool {
	return a.resolve(EventCancelled, func(string) error {
		return failure.New(failure.KindCancelled, "generation.Cancel", cause)
	})
}

// Done is closed when the arbiter resolves.
func (a *Arbiter) Done() <-chan struct{} {
	return a.done
}

// Outcome returns the resolved outcome. Before resolution it returns the zero
// Outcome with EventNone.
func (a *Arbiter) Outcome() Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outcome
}

func (a *Arbiter) resolve(event Event, classify func(text string) error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateOpen {
		return false
	}

	text := a.text.String()
	err := classify(text)
	if err != nil {
		text = ""
	}
	a.outcome = Outcome{Text: text, Err: err, Event: event}
	a.state = StateResolved
	close(a.done)
	return true
}
