// Package dispatch runs event handlers with failure isolation.
//
// The Dispatcher executes one handler call at a time in the caller's
// goroutine. A handler that returns an error or panics produces a failed
// Result; it never unwinds into the publisher, so the remaining handlers of
// the same publish still run.
//
// # Usage
//
//	d := dispatch.NewDispatcher(dispatch.WithPanicHandler(onPanic))
//	res := d.Dispatch(evt, func() error { return h.Handle(evt) })
//	if res.IsPanic() {
//	    // res.PanicValue and res.PanicStack describe the failure
//	}
package dispatch
