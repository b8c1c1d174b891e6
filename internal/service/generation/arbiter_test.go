package generation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-travel-planner/internal/failure"
)

func TestArbiter_InitialState(t *testing.T) {
	a := NewArbiter()

	assert.Equal(t, StateOpen, a.State())
	assert.Equal(t, EventNone, a.Outcome().Event)
	select {
	case <-a.Done():
		t.Fatal("done closed before resolution")
	default:
	}
}

func TestArbiter_TerminalAfterPartials(t *testing.T) {
	a := NewArbiter()
	a.Append("A")
	a.Append("B")

	require.True(t, a.Terminal())
	<-a.Done()

	out := a.Outcome()
	assert.True(t, out.OK())
	assert.Equal(t, "AB", out.Text)
	assert.Equal(t, EventTerminal, out.Event)
	assert.Equal(t, StateResolved, a.State())
}

func TestArbiter_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		resolve   func(a *Arbiter) bool
		wantText  string
		wantErr   error
		wantEvent Event
	}{
		{"terminal with text", []string{"A"}, (*Arbiter).Terminal, "A", nil, EventTerminal},
		{"terminal empty", nil, (*Arbiter).Terminal, "", failure.ErrEmptyResult, EventTerminal},
		{"closed with text", []string{"A"}, (*Arbiter).Closed, "A", nil, EventClosed},
		{"closed empty", nil, (*Arbiter).Closed, "", failure.ErrEmptyResult, EventClosed},
		{"transport error keeps no text", []string{"A"}, func(a *Arbiter) bool {
			return a.Fail(errors.New("connection reset"))
		}, "", failure.ErrTransport, EventTransport},
		{"cancelled", []string{"A"}, func(a *Arbiter) bool {
			return a.Cancel(context.Canceled)
		}, "", failure.ErrCancelled, EventCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArbiter()
			for _, f := range tt.fragments {
				a.Append(f)
			}
			require.True(t, tt.resolve(a))

			out := a.Outcome()
			assert.Equal(t, tt.wantText, out.Text)
			assert.Equal(t, tt.wantEvent, out.Event)
			if tt.wantErr == nil {
				assert.NoError(t, out.Err)
			} else {
				assert.ErrorIs(t, out.Err, tt.wantErr)
			}
		})
	}
}

func TestArbiter_TransportErrorDetailPreserved(t *testing.T) {
	a := NewArbiter()
	cause := errors.New("tls handshake failed")

	a.Fail(cause)

	assert.ErrorIs(t, a.Outcome().Err, cause)
	assert.ErrorIs(t, a.Outcome().Err, failure.ErrTransport)
}

func TestArbiter_AppendAfterResolutionIgnored(t *testing.T) {
	a := NewArbiter()
	a.Append("A")
	a.Terminal()

	assert.False(t, a.Append("B"))
	assert.Equal(t, "A", a.Outcome().Text)
}

// Every ordering of the four resolving events must keep the first one.
func TestArbiter_FirstEventWins_AllOrders(t *testing.T) {
	resolvers := map[Event]func(a *Arbiter) bool{
		EventTerminal:  (*Arbiter).Terminal,
		EventTransport: func(a *Arbiter) bool { return a.Fail(errors.New("boom")) },
		EventClosed:    (*Arbiter).Closed,
		EventCancelled: func(a *Arbiter) bool { return a.Cancel(context.Canceled) },
	}
	events := []Event{EventTerminal, EventTransport, EventClosed, EventCancelled}

	for _, order := range permutations(events) {
		a := NewArbiter()
		a.Append("partial")

		for i, ev := range order {
			won := resolvers[ev](a)
			if i == 0 {
				assert.True(t, won, "order %v: first resolver should win", order)
			} else {
				assert.False(t, won, "order %v: %s should be a no-op", order, ev)
			}
		}
		assert.Equal(t, order[0], a.Outcome().Event, "order %v", order)
	}
}

func TestArbiter_FirstEventWins_Concurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	events := []Event{EventTerminal, EventTransport, EventClosed, EventCancelled}

	for round := 0; round < 200; round++ {
		a := NewArbiter()
		a.Append("x")

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []Event
		)
		start := make(chan struct{})

		n := 2 + rng.Intn(6)
		for i := 0; i < n; i++ {
			ev := events[rng.Intn(len(events))]
			wg.Add(1)
			go func(ev Event) {
				defer wg.Done()
				<-start
				var won bool
				switch ev {
				case EventTerminal:
					won = a.Terminal()
				case EventTransport:
					won = a.Fail(errors.New("boom"))
				case EventClosed:
					won = a.Closed()
				case EventCancelled:
					won = a.Cancel(context.Canceled)
				}
				if won {
					mu.Lock()
					winners = append(winners, ev)
					mu.Unlock()
				}
			}(ev)
		}
		close(start)
		wg.Wait()

		require.Len(t, winners, 1, "round %d: exactly one resolver must win", round)
		assert.Equal(t, winners[0], a.Outcome().Event, "round %d", round)
		<-a.Done()
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "RESOLVED", StateResolved.String())
	assert.Equal(t, "UNKNOWN(7)", State(7).String())
}

func permutations(in []Event) [][]Event {
	if len(in) <= 1 {
		return [][]Event{append([]Event(nil), in...)}
	}
	var out [][]Event
	for i := range in {
		rest := make([]Event, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Event{in[i]}, p...))
		}
	}
	return out
}
