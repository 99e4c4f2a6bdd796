// Package asyncop tracks the lifecycle of one asynchronous operation
// (payment intent creation, payment confirmation, store write).
//
// An operation can only be completed through the Token returned by a
// successful Begin, so a caller that lost the race for Begin has nothing to
// finish with.
package asyncop

import "sync"

type State int

const (
	Idle State = iota
	InFlight
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Op is safe for concurrent use. The zero value is Idle.
type Op struct {
	mu    sync.Mutex
	state State
	gen   uint64
}

// Token is the right to resolve one in-flight attempt.
type Token struct {
	op  *Op
	gen uint64
}

// State returns the current state.
func (o *Op) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin moves Idle or Failed to InFlight. It refuses while another attempt is
// in flight and once the operation is Done.
func (o *Op) Begin() (Token, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == InFlight || o.state == Done {
		return Token{}, false
	}
	o.state = InFlight
	o.gen++
	return Token{op: o, gen: o.gen}, true
}

// Reset returns the operation to Idle unless an attempt is in flight.
func (o *Op) Reset() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == InFlight {
		return false
	}
	o.state = Idle
	o.gen++
	return true
}

// Succeed marks the attempt Done. It reports false for a stale or zero token.
func (t Token) Succeed() bool { return t.resolve(Done) }

// Fail marks the attempt Failed so it can be retried.
func (t Token) Fail() bool { return t.resolve(Failed) }

// Release returns the attempt to Idle, for attempts that ended without a
// terminal result.
func (t Token) Release() bool { return t.resolve(Idle) }

func (t Token) resolve(to State) bool {
	if t.op == nil {
		return false
	}
	t.op.mu.Lock()
	defer t.op.mu.Unlock()
	if t.op.gen != t.gen || t.op.state != InFlight {
		return false
	}
	t.op.state = to
	return true
}
