package event

import (
	"strings"
	"testing"
	"time"

	"github.com/dshills/gamebus/internal/entity"
)

func TestNewPayload(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = old }()

	params := []any{10, "fire"}
	p := NewPayload(entity.ID(5), Broadcast(), params...)
	params[0] = 99

	if p.ID() == "" {
		t.Error("expected payload ID")
	}
	if !p.Timestamp().Equal(fixed) {
		t.Errorf("Timestamp() = %v, want %v", p.Timestamp(), fixed)
	}
	if p.Originator() != entity.ID(5) {
		t.Errorf("Originator() = %v", p.Originator())
	}
	if p.Receivers().Mode() != ReceiversBroadcast {
		t.Errorf("Receivers() = %v", p.Receivers())
	}
	if v, _ := p.Int(0); v != 10 {
		t.Errorf("payload retained caller slice, Int(0) = %d", v)
	}

	out := p.Params()
	out[1] = "changed"
	if s, _ := p.Text(1); s != "fire" {
		t.Error("Params() should return a copy")
	}

	if p2 := NewPayload(entity.Nil, Self()); p2.ID() == p.ID() {
		t.Error("payload IDs should be unique")
	}
}

func TestPayload_Accessors(t *testing.T) {
	id := entity.ID(1<<32 | 3)
	p := NewPayload(entity.Nil, Broadcast(), 2.5, int64(7), "name", true, id, float32(1.5), uint8(3))

	if p.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", p.Len())
	}

	if f, ok := p.Float(0); !ok || f != 2.5 {
		t.Errorf("Float(0) = %v, %v", f, ok)
	}
	if f, ok := p.Float(1); !ok || f != 7 {
		t.Errorf("Float(1) = %v, %v", f, ok)
	}
	if f, ok := p.Float(5); !ok || f != 1.5 {
		t.Errorf("Float(5) = %v, %v", f, ok)
	}
	if n, ok := p.Int(0); !ok || n != 2 {
		t.Errorf("Int(0) = %v, %v", n, ok)
	}
	if n, ok := p.Int(6); !ok || n != 3 {
		t.Errorf("Int(6) = %v, %v", n, ok)
	}
	if s, ok := p.Text(2); !ok || s != "name" {
		t.Errorf("Text(2) = %q, %v", s, ok)
	}
	if b, ok := p.Bool(3); !ok || !b {
		t.Errorf("Bool(3) = %v, %v", b, ok)
	}
	if e, ok := p.Entity(4); !ok || e != id {
		t.Errorf("Entity(4) = %v, %v", e, ok)
	}

	if _, ok := p.Float(2); ok {
		t.Error("Float on string should fail")
	}
	if _, ok := p.Text(0); ok {
		t.Error("Text on float should fail")
	}
	if _, ok := p.Bool(2); ok {
		t.Error("Bool on string should fail")
	}
	if _, ok := p.Entity(1); ok {
		t.Error("Entity on int64 should fail")
	}
	if _, ok := p.Entity(2); ok {
		t.Error("Entity on a non-id string should fail")
	}
	if e, ok := NewPayload(entity.Nil, Broadcast(), id.String()).Entity(0); !ok || e != id {
		t.Errorf("Entity on id string = %v, %v", e, ok)
	}
	if _, ok := p.Param(-1); ok {
		t.Error("Param(-1) should fail")
	}
	if _, ok := p.Param(7); ok {
		t.Error("Param out of range should fail")
	}
	if _, ok := p.Int(100); ok {
		t.Error("Int out of range should fail")
	}
}

func TestPayload_Empty(t *testing.T) {
	p := NewPayload(entity.Nil, Self())
	if p.Len() != 0 || p.Params() != nil {
		t.Errorf("expected no params, got %v", p.Params())
	}
	if !strings.Contains(p.GoString(), "self") {
		t.Errorf("GoString() = %q", p.GoString())
	}
}
