package event

import (
	"testing"

	"github.com/dshills/gamebus/internal/entity"
)

func TestPublisher(t *testing.T) {
	world := entity.NewWorld()
	player := world.Create("player", "hero")
	enemy := world.Create("enemy", "enemy")
	b := NewBus(WithEntities(world))
	rec := &recorder{}

	var last Payload
	mustSubscribe(t, b, On(kindA), player, HandlerFunc(func(p Payload) error {
		last = p
		return rec.handler("player")(p)
	}))
	mustSubscribe(t, b, On(kindA), enemy, rec.handler("enemy"))

	pub := NewPublisher(b, player)
	if pub.Originator() != player {
		t.Errorf("Originator() = %v", pub.Originator())
	}

	tests := []struct {
		name    string
		publish func()
		want    []string
	}{
		{"self", func() { pub.ToSelf(On(kindA), 3) }, []string{"player"}},
		{"all", func() { pub.ToAll(On(kindA)) }, []string{"player", "enemy"}},
		{"tagged", func() { pub.ToTagged(On(kindA), "enemy") }, []string{"enemy"}},
		{"entities", func() { pub.ToEntities(On(kindA), []entity.ID{enemy, player}) }, []string{"player", "enemy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.reset()
			tt.publish()
			if got := rec.get(); !equalCalls(got, tt.want) {
				t.Errorf("calls = %v, want %v", got, tt.want)
			}
		})
	}

	pub.ToSelf(On(kindA), 9)
	if last.Originator() != player {
		t.Errorf("payload originator = %v", last.Originator())
	}
	if v, _ := last.Int(0); v != 9 {
		t.Errorf("payload param = %d, want 9", v)
	}
}
