package component

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/lifecycle"
	"github.com/dshills/gamebus/internal/schedule"
)

type harness struct {
	world *entity.World
	bus   *event.Bus
	queue *schedule.Queue
	now   time.Duration
}

func newHarness() *harness {
	world := entity.NewWorld()
	return &harness{
		world: world,
		bus:   event.NewBus(event.WithEntities(world)),
		queue: schedule.New(),
	}
}

func (h *harness) enable(t *testing.T, owner entity.ID, c lifecycle.Component) *lifecycle.Context {
	t.Helper()
	ctx := lifecycle.NewContext(h.bus, h.world, owner, h.queue, zerolog.Nop(), func() time.Duration { return h.now })
	if err := c.Enable(ctx); err != nil {
		t.Fatalf("Enable() failed: %v", err)
	}
	return ctx
}

func (h *harness) advance(d time.Duration) {
	h.now += d
	h.queue.Poll(h.now)
}

func TestHealth(t *testing.T) {
	h := newHarness()
	player := h.world.Create("player")
	other := h.world.Create("other")
	hp := NewHealth(50)
	h.enable(t, player, hp)

	var deaths []entity.ID
	if _, err := h.bus.SubscribeFunc(event.On(catalog.PlayerDied), entity.Nil, func(p event.Payload) error {
		deaths = append(deaths, p.Originator())
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	hit := func(target entity.ID, amount float64) {
		h.bus.Publish(event.On(catalog.PlayerDamaged), event.NewPayload(other, event.Entities(target), amount))
	}

	hit(player, 20)
	if hp.Current() != 30 {
		t.Errorf("Current() = %v, want 30", hp.Current())
	}

	hit(other, 20)
	if hp.Current() != 30 {
		t.Error("damage addressed to another entity was applied")
	}

	h.bus.Publish(event.On(catalog.PlayerHealed), event.NewPayload(player, event.Self(), 100))
	if hp.Current() != 50 {
		t.Errorf("heal not capped: %v", hp.Current())
	}

	hit(player, 60)
	hit(player, 10)
	if !hp.Dead() || hp.Current() != 0 {
		t.Errorf("Dead()=%v Current()=%v", hp.Dead(), hp.Current())
	}
	if len(deaths) != 1 || deaths[0] != player {
		t.Errorf("deaths = %v, want [%v]", deaths, player)
	}

	h.bus.Publish(event.On(catalog.PlayerRespawned), event.NewPayload(player, event.Self()))
	if hp.Dead() || hp.Current() != 50 {
		t.Errorf("after respawn Dead()=%v Current()=%v", hp.Dead(), hp.Current())
	}
}

func TestCameraShake(t *testing.T) {
	h := newHarness()
	cam := h.world.Create("camera", "camera")
	shake := NewCameraShake(0.1, 2, 1)
	ctx := h.enable(t, cam, shake)

	h.bus.Publish(event.On(catalog.PlayerDamaged), event.NewPayload(entity.Nil, event.Tagged("camera"), 5))
	if got := shake.Intensity(); got != 0.5 {
		t.Errorf("Intensity() = %v, want 0.5", got)
	}

	h.bus.Publish(event.On(catalog.PlayerDamaged), event.NewPayload(entity.Nil, event.Tagged("camera"), 50))
	if got := shake.Intensity(); got != 1 {
		t.Errorf("Intensity() = %v, want limit 1", got)
	}

	shake.Update(250 * time.Millisecond)
	if got := shake.Intensity(); got != 0.5 {
		t.Errorf("after decay Intensity() = %v, want 0.5", got)
	}
	shake.Update(time.Second)
	if got := shake.Intensity(); got != 0 {
		t.Errorf("Intensity() = %v, want 0", got)
	}

	shake.Disable()
	ctx.Release()
	h.bus.Publish(event.On(catalog.PlayerDamaged), event.NewPayload(entity.Nil, event.Tagged("camera"), 5))
	if shake.Intensity() != 0 {
		t.Error("disabled camera still shakes")
	}
}

func TestAudioTrigger(t *testing.T) {
	h := newHarness()
	speaker := h.world.Create("speaker")
	sink := &RecordingSink{}
	audio := NewAudioTrigger(map[catalog.Kind]string{
		catalog.PlayerDied: "death",
		catalog.ItemPicked:  "pickup",
	}, 0.8, sink)
	h.enable(t, speaker, audio)

	h.bus.Publish(event.On(catalog.ItemPicked, catalog.PlayerDied), event.NewPayload(entity.Nil, event.Broadcast()))
	h.bus.Publish(event.On(catalog.VolumeChanged), event.NewPayload(entity.Nil, event.Broadcast(), 1.5))
	h.bus.Publish(event.On(catalog.PlayerDied), event.NewPayload(entity.Nil, event.Broadcast()))
	h.bus.Publish(event.On(catalog.VolumeChanged), event.NewPayload(entity.Nil, event.Broadcast(), 0))
	h.bus.Publish(event.On(catalog.PlayerDied), event.NewPayload(entity.Nil, event.Broadcast()))

	played := sink.Played()
	want := []PlayedCue{{"pickup", 0.8}, {"death", 0.8}, {"death", 1}}
	if len(played) != len(want) {
		t.Fatalf("played = %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Errorf("played[%d] = %v, want %v", i, played[i], want[i])
		}
	}
	if audio.Volume() != 0 {
		t.Errorf("Volume() = %v, want 0", audio.Volume())
	}
}

func TestAudioTrigger_PatternCues(t *testing.T) {
	c, err := newAudioTriggerFromParams(Params{"cues": map[string]any{
		"system.*":             "ui",
		"system.tick":          "metronome",
		"gameplay.player_died": "death",
	}})
	if err != nil {
		t.Fatalf("newAudioTriggerFromParams() failed: %v", err)
	}
	cues := c.(*AudioTrigger).cues

	tests := map[catalog.Kind]string{
		catalog.SceneLoaded:    "ui",
		catalog.ConfigReloaded: "ui",
		catalog.Tick:           "metronome",
		catalog.PlayerDied:     "death",
	}
	for k, want := range tests {
		if got := cues[k]; got != want {
			t.Errorf("cue for %s = %q, want %q", k, got, want)
		}
	}
	if _, ok := cues[catalog.PlayerDamaged]; ok {
		t.Error("player_damaged should have no cue")
	}
}

func TestAudioTrigger_OverlappingPatterns(t *testing.T) {
	for range 20 {
		c, err := newAudioTriggerFromParams(Params{"cues": map[string]any{
			"*.player_died": "by_name",
			"gameplay.*":    "by_category",
			"*":             "fallback",
		}})
		if err != nil {
			t.Fatalf("newAudioTriggerFromParams() failed: %v", err)
		}
		cues := c.(*AudioTrigger).cues
		if got := cues[catalog.PlayerDied]; got != "by_category" {
			t.Fatalf("cue for player_died = %q, want by_category", got)
		}
		if got := cues[catalog.Tick]; got != "fallback" {
			t.Fatalf("cue for tick = %q, want fallback", got)
		}
	}
}

func TestCooldown(t *testing.T) {
	h := newHarness()
	hero := h.world.Create("hero")
	cd := NewCooldown("dash", 2*time.Second)
	h.enable(t, hero, cd)

	readies := 0
	if _, err := h.bus.SubscribeFunc(event.On(catalog.AbilityReady), hero, func(p event.Payload) error {
		if name, _ := p.Text(0); name == "dash" {
			readies++
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	use := func(ability string) {
		h.bus.Publish(event.On(catalog.AbilityUsed), event.NewPayload(hero, event.Self(), ability))
	}

	use("dash")
	use("dash")
	use("jump")
	if cd.Ready() {
		t.Error("expected cooldown after use")
	}
	if a, r := cd.Counts(); a != 1 || r != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", a, r)
	}

	h.advance(time.Second)
	if cd.Ready() || readies != 0 {
		t.Error("re-enabled too early")
	}

	h.advance(time.Second)
	if !cd.Ready() || readies != 1 {
		t.Errorf("Ready()=%v readies=%d after delay", cd.Ready(), readies)
	}

	use("dash")
	if a, _ := cd.Counts(); a != 2 {
		t.Errorf("accepted = %d, want 2", a)
	}
}

func TestCooldown_DisableCancelsReenable(t *testing.T) {
	h := newHarness()
	hero := h.world.Create("hero")
	cd := NewCooldown("", time.Second)
	ctx := h.enable(t, hero, cd)

	readies := 0
	if _, err := h.bus.SubscribeFunc(event.On(catalog.AbilityReady), hero, func(event.Payload) error {
		readies++
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	h.bus.Publish(event.On(catalog.AbilityUsed), event.NewPayload(hero, event.Self(), "anything"))
	cd.Disable()
	ctx.Release()
	h.advance(5 * time.Second)

	if readies != 0 {
		t.Errorf("ability_ready published %d times after disable", readies)
	}
	if h.queue.Len() != 0 {
		t.Errorf("queue still has %d tasks", h.queue.Len())
	}
}

func TestRegistry_Build(t *testing.T) {
	r := Builtin()

	tests := []struct {
		typ     string
		params  Params
		wantErr bool
	}{
		{"health", Params{"max": int64(10)}, false},
		{"health", Params{"max": -1.0}, true},
		{"health", Params{"max": "lots"}, true},
		{"camera_shake", nil, false},
		{"audio", Params{"cues": map[string]any{"gameplay.player_died": "death"}}, false},
		{"audio", Params{"cues": map[string]any{"nocategory": "x"}}, true},
		{"cooldown", Params{"ability": "dash", "delay": "1.5s"}, false},
		{"cooldown", Params{"delay": 2}, false},
		{"cooldown", Params{"delay": "soon"}, true},
		{"teleporter", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			c, err := r.Build(tt.typ, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build(%s) error = %v, wantErr %v", tt.typ, err, tt.wantErr)
			}
			if !tt.wantErr && c == nil {
				t.Error("expected component")
			}
		})
	}

	if _, err := r.Build("nope", nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}

	types := r.Types()
	if len(types) != 4 || types[0] != "audio" {
		t.Errorf("Types() = %v", types)
	}
}

func TestParams_Duration(t *testing.T) {
	p := Params{"a": "250ms", "b": int64(2), "c": 0.5, "d": true}

	tests := []struct {
		key     string
		want    time.Duration
		wantErr bool
	}{
		{"a", 250 * time.Millisecond, false},
		{"b", 2 * time.Second, false},
		{"c", 500 * time.Millisecond, false},
		{"d", 0, true},
		{"missing", time.Minute, false},
	}
	for _, tt := range tests {
		got, err := p.Duration(tt.key, time.Minute)
		if (err != nil) != tt.wantErr {
			t.Errorf("Duration(%q) error = %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Duration(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
