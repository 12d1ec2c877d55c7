package event

import (
	"testing"

	"github.com/dshills/gamebus/internal/entity"
)

type tagSet map[entity.ID][]entity.Tag

func (s tagSet) HasTag(id entity.ID, tag entity.Tag) bool {
	for _, t := range s[id] {
		if t == tag {
			return true
		}
	}
	return false
}

func TestShouldRespond(t *testing.T) {
	const (
		x = entity.ID(1<<32 | 1)
		y = entity.ID(1<<32 | 2)
	)
	tags := tagSet{x: {"enemy"}}

	tests := []struct {
		name       string
		originator entity.ID
		receivers  Receivers
		owner      entity.ID
		want       bool
	}{
		{"self matches originator", x, Self(), x, true},
		{"self other owner", x, Self(), y, false},
		{"self nil owner nil originator", entity.Nil, Self(), entity.Nil, false},
		{"entities listed", y, Entities(x), x, true},
		{"entities not listed", y, Entities(x), y, false},
		{"entities nil entries ignored", y, Entities(entity.Nil), entity.Nil, false},
		{"entities all nil", y, Entities(entity.Nil, entity.Nil), x, false},
		{"entities empty", y, Entities(), x, false},
		{"tagged member", y, Tagged("enemy"), x, true},
		{"tagged non-member", y, Tagged("enemy"), y, false},
		{"tagged empty tag", y, Tagged(""), x, false},
		{"tagged nil owner", y, Tagged("enemy"), entity.Nil, false},
		{"broadcast", y, Broadcast(), x, true},
		{"broadcast nil owner", y, Broadcast(), entity.Nil, true},
		{"zero value", y, Receivers{}, x, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPayload(tt.originator, tt.receivers)
			if got := ShouldRespond(p, tt.owner, tags); got != tt.want {
				t.Errorf("ShouldRespond() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRespond_NilTagQuery(t *testing.T) {
	p := NewPayload(entity.Nil, Tagged("enemy"))
	if ShouldRespond(p, entity.ID(1<<32|1), nil) {
		t.Error("nil TagQuery should never match a tag")
	}
}

func TestReceivers_IsValid(t *testing.T) {
	tests := []struct {
		name string
		r    Receivers
		want bool
	}{
		{"zero", Receivers{}, false},
		{"self", Self(), true},
		{"broadcast", Broadcast(), true},
		{"entities", Entities(entity.ID(7)), true},
		{"entities only nil", Entities(entity.Nil), false},
		{"entities empty", Entities(), false},
		{"tagged", Tagged("a"), true},
		{"tagged empty", Tagged(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReceivers_EntitiesCopiesInput(t *testing.T) {
	ids := []entity.ID{1, 2}
	r := Entities(ids...)
	ids[0] = 99

	got := r.IDs()
	if got[0] != 1 {
		t.Errorf("Entities retained caller slice: %v", got)
	}

	got[1] = 42
	if r.IDs()[1] != 2 {
		t.Error("IDs() should return a copy")
	}
}

func TestReceivers_String(t *testing.T) {
	tests := []struct {
		r    Receivers
		want string
	}{
		{Self(), "self"},
		{Broadcast(), "broadcast"},
		{Tagged("enemy"), "tag:enemy"},
		{Receivers{}, "invalid"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	if got := Entities(entity.Nil).String(); got != "entities[nil]" {
		t.Errorf("String() = %q", got)
	}
}

func TestReceivers_Mode(t *testing.T) {
	if Tagged("x").Mode() != ReceiversTagged {
		t.Error("expected tagged mode")
	}
	if Tagged("x").Tag() != "x" {
		t.Error("expected tag x")
	}
	if (Receivers{}).Mode() != ReceiversInvalid {
		t.Error("zero value should be invalid mode")
	}
}
