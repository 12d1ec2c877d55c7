package dispatch

import (
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Dispatcher runs handler calls in the caller's goroutine, recovering
// panics and keeping totals across calls. It is safe for concurrent use.
type Dispatcher struct {
	panicHandler PanicHandler

	dispatched atomic.Uint64
	succeeded  atomic.Uint64
	failed     atomic.Uint64
	panicked   atomic.Uint64
	elapsedNs  atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler installs h to observe recovered panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) {
		d.panicHandler = h
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs call and classifies the outcome. ev is passed through to
// the panic handler untouched.
func (d *Dispatcher) Dispatch(ev any, call func() error) Result {
	d.dispatched.Add(1)
	result := d.execute(ev, call)
	d.elapsedNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.IsPanic():
		d.panicked.Add(1)
	case result.IsError():
		d.failed.Add(1)
	default:
		d.succeeded.Add(1)
	}
	return result
}

func (d *Dispatcher) execute(ev any, call func() error) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Result{Panicked: true, PanicValue: r, PanicStack: debug.Stack()}
			d.notifyPanic(ev, r, result.PanicStack)
		}
		result.Duration = time.Since(start)
	}()

	result.Error = call()
	return result
}

func (d *Dispatcher) notifyPanic(ev any, r any, stack []byte) {
	if d.panicHandler == nil {
		return
	}
	defer func() { _ = recover() }()
	d.panicHandler(ev, r, stack)
}

// Stats returns running totals. The counters are read individually, so a
// snapshot taken during a dispatch may be off by one between fields.
func (d *Dispatcher) Stats() Stats {
	n := d.dispatched.Load()
	elapsed := time.Duration(d.elapsedNs.Load())

	var avg time.Duration
	if n > 0 {
		avg = elapsed / time.Duration(n)
	}
	return Stats{
		Dispatched:    n,
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		TotalDuration: elapsed,
		AvgDuration:   avg,
	}
}

// Stats are running totals for a Dispatcher.
type Stats struct {
	Dispatched uint64
	Succeeded  uint64
	Failed     uint64
	Panicked   uint64

	// TotalDuration is the summed wall time of every call.
	TotalDuration time.Duration
	AvgDuration   time.Duration
}
