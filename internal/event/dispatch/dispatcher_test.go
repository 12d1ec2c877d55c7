package dispatch

import (
	"errors"
	"testing"
)

func TestDispatcher_Success(t *testing.T) {
	d := NewDispatcher()
	called := false

	res := d.Dispatch("evt", func() error {
		called = true
		return nil
	})

	if !called {
		t.Fatal("call was not executed")
	}
	if res.IsError() || res.IsPanic() {
		t.Errorf("unexpected failure: %+v", res)
	}
}

func TestDispatcher_Error(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")

	res := d.Dispatch("evt", func() error { return boom })

	if !res.IsError() || res.IsPanic() {
		t.Errorf("expected error result, got %+v", res)
	}
	if !errors.Is(res.Error, boom) {
		t.Errorf("Error = %v, want %v", res.Error, boom)
	}
}

func TestDispatcher_PanicRecovered(t *testing.T) {
	var gotEvent, gotValue any
	var gotStack []byte
	d := NewDispatcher(WithPanicHandler(func(ev any, v any, stack []byte) {
		gotEvent, gotValue, gotStack = ev, v, stack
	}))

	res := d.Dispatch("evt", func() error { panic("kaboom") })

	if !res.IsPanic() || res.IsError() {
		t.Fatalf("expected panic result, got %+v", res)
	}
	if res.PanicValue != "kaboom" {
		t.Errorf("PanicValue = %v", res.PanicValue)
	}
	if len(res.PanicStack) == 0 {
		t.Error("expected stack trace")
	}
	if res.Duration <= 0 {
		t.Error("expected a duration for a panicked call")
	}
	if gotEvent != "evt" || gotValue != "kaboom" || len(gotStack) == 0 {
		t.Errorf("panic handler got (%v, %v, %d bytes)", gotEvent, gotValue, len(gotStack))
	}
}

func TestDispatcher_PanicHandlerPanics(t *testing.T) {
	d := NewDispatcher(WithPanicHandler(func(any, any, []byte) {
		panic("handler of handlers")
	}))

	res := d.Dispatch("evt", func() error { panic("first") })
	if !res.IsPanic() {
		t.Error("expected panic result even when panic handler fails")
	}
}

func TestDispatcher_Stats(t *testing.T) {
	d := NewDispatcher()
	d.Dispatch(nil, func() error { return nil })
	d.Dispatch(nil, func() error { return errors.New("x") })
	d.Dispatch(nil, func() error { panic("y") })

	s := d.Stats()
	if s.Dispatched != 3 || s.Succeeded != 1 || s.Failed != 1 || s.Panicked != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.AvgDuration != s.TotalDuration/3 {
		t.Errorf("AvgDuration = %v, TotalDuration = %v", s.AvgDuration, s.TotalDuration)
	}
}
