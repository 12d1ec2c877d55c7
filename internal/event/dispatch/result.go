package dispatch

import "time"

// Result describes one handler call.
type Result struct {
	// Error is what the handler returned. Nil after a panic.
	Error error

	// Panicked is set when the call was unwound by a panic.
	Panicked bool

	// PanicValue and PanicStack are only set when Panicked.
	PanicValue any
	PanicStack []byte

	// Duration is the wall time of the call, including any recovery.
	Duration time.Duration
}

// IsError reports a returned error.
func (r Result) IsError() bool {
	return r.Error != nil && !r.Panicked
}

// IsPanic reports a recovered panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler observes a recovered panic. ev is the value given to
// Dispatch. A PanicHandler that itself panics is ignored.
type PanicHandler func(ev any, recovered any, stack []byte)
