// Package scene hosts entities and their components around a single event
// bus and drives them with a fixed-step game clock.
package scene

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/gamebus/internal/component"
	"github.com/dshills/gamebus/internal/config"
	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/lifecycle"
	"github.com/dshills/gamebus/internal/logging"
	"github.com/dshills/gamebus/internal/schedule"
	"github.com/dshills/gamebus/internal/script"
)

// Scene errors.
var (
	// ErrClosed is returned by operations on a closed scene.
	ErrClosed = errors.New("scene closed")

	// ErrAlreadyRunning indicates Run was called while the loop is active.
	ErrAlreadyRunning = errors.New("scene already running")

	// ErrDuplicateName indicates an entity with the same name already exists.
	ErrDuplicateName = errors.New("duplicate entity name")

	// ErrUnknownEntity indicates the entity is not hosted by the scene.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Gauges receives population counts after every change.
type Gauges interface {
	SetSubscriptions(n int)
	SetEntities(n int)
}

// Option configures a Scene.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	observer event.Observer
	gauges   Gauges
	registry *component.Registry
}

// WithLogger sets the scene logger. Components receive a child logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver sets the bus dispatch observer.
func WithObserver(obs event.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithGauges sets the sink for entity and subscription counts.
func WithGauges(g Gauges) Option {
	return func(o *options) {
		o.gauges = g
	}
}

// WithRegistry replaces the component registry. The default is the builtin
// set plus "script".
func WithRegistry(r *component.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// attachment is one enabled component on an entity.
type attachment struct {
	typ  string
	comp lifecycle.Component
	ctx  *lifecycle.Context
}

// hosted is the scene's record of a spawned entity.
type hosted struct {
	id    entity.ID
	spec  config.EntitySpec
	parts []attachment
}

// Scene owns the entity table, the bus and the scheduler for one level.
type Scene struct {
	mu       sync.Mutex
	cfg      config.Config
	world    *entity.World
	bus      *event.Bus
	queue    *schedule.Queue
	registry *component.Registry
	logger   zerolog.Logger
	gauges   Gauges
	system   *event.Publisher

	entities map[entity.ID]*hosted
	order    []entity.ID

	now     atomic.Int64
	ticks   atomic.Uint64
	running atomic.Bool
	closed  bool
}

// New creates an empty scene for cfg. Call Load to spawn cfg's entities.
func New(cfg config.Config, opts ...Option) *Scene {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = component.Builtin()
		o.registry.Register("script", script.Factory(cfg.Dir))
	}

	world := entity.NewWorld()
	busOpts := []event.BusOption{
		event.WithEntities(world),
		event.WithLogger(logging.WithComponent(o.logger, "bus")),
		event.WithBusDebug(cfg.Bus.Debug),
	}
	if o.observer != nil {
		busOpts = append(busOpts, event.WithObserver(o.observer))
	}
	bus := event.NewBus(busOpts...)

	return &Scene{
		cfg:      cfg,
		world:    world,
		bus:      bus,
		queue:    schedule.New(),
		registry: o.registry,
		logger:   o.logger,
		gauges:   o.gauges,
		system:   event.NewPublisher(bus, entity.Nil),
		entities: make(map[entity.ID]*hosted),
	}
}

// Bus returns the scene's event bus.
func (s *Scene) Bus() *event.Bus {
	return s.bus
}

// World returns the scene's entity table.
func (s *Scene) World() *entity.World {
	return s.world
}

// Scheduler returns the scene's deferred task queue.
func (s *Scene) Scheduler() *schedule.Queue {
	return s.queue
}

// Now returns the current game time.
func (s *Scene) Now() time.Duration {
	return time.Duration(s.now.Load())
}

// Ticks returns the number of completed ticks.
func (s *Scene) Ticks() uint64 {
	return s.ticks.Load()
}

// Config returns the configuration the scene was built or last reloaded with.
func (s *Scene) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Load spawns every entity in the configuration and publishes
// system.scene_loaded with the number of entities.
func (s *Scene) Load() error {
	s.mu.Lock()
	specs := s.cfg.Entities
	s.mu.Unlock()

	for _, spec := range specs {
		if _, err := s.Spawn(spec); err != nil {
			return err
		}
	}
	s.system.ToAll(event.On(catalog.SceneLoaded), s.world.Len())
	s.logger.Info().Int("entities", s.world.Len()).Msg("scene loaded")
	return nil
}

// Spawn creates an entity from spec and enables its components in order.
// If a component fails to build or enable, the components already enabled
// are disabled and the entity is destroyed.
func (s *Scene) Spawn(spec config.EntitySpec) (entity.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return entity.Nil, ErrClosed
	}
	if spec.Name == "" {
		return entity.Nil, fmt.Errorf("spawn: %w: entity name is required", config.ErrInvalid)
	}
	if _, exists := s.world.Find(spec.Name); exists {
		return entity.Nil, fmt.Errorf("spawn %s: %w", spec.Name, ErrDuplicateName)
	}

	tags := make([]entity.Tag, len(spec.Tags))
	for i, t := range spec.Tags {
		tags[i] = entity.Tag(t)
	}
	id := s.world.Create(spec.Name, tags...)
	h := &hosted{id: id, spec: spec}

	for i, cs := range spec.Components {
		part, err := s.attach(id, spec.Name, cs)
		if err != nil {
			s.detach(h)
			_ = s.world.Destroy(id)
			return entity.Nil, fmt.Errorf("spawn %s: component %d (%s): %w", spec.Name, i, cs.Type, err)
		}
		h.parts = append(h.parts, part)
	}

	s.entities[id] = h
	s.order = append(s.order, id)
	s.logger.Debug().
		Str("entity", spec.Name).
		Stringer("id", id).
		Int("components", len(h.parts)).
		Msg("spawned")
	s.updateGauges()
	return id, nil
}

// attach builds and enables one component. s.mu must be held.
func (s *Scene) attach(id entity.ID, name string, cs config.ComponentSpec) (attachment, error) {
	params := component.Params(maps.Clone(cs.Params))
	if params == nil {
		params = component.Params{}
	}
	if cs.Debug {
		params["debug"] = true
	}
	comp, err := s.registry.Build(cs.Type, params)
	if err != nil {
		return attachment{}, err
	}

	logger := logging.WithComponent(s.logger, cs.Type).With().Str("entity", name).Logger()
	ctx := lifecycle.NewContext(s.bus, s.world, id, s.queue, logger, s.Now)
	ctx.Debug = cs.Debug
	if err := comp.Enable(ctx); err != nil {
		ctx.Release()
		return attachment{}, err
	}
	return attachment{typ: cs.Type, comp: comp, ctx: ctx}, nil
}

// detach disables h's components in reverse order and releases their
// subscriptions and tasks. s.mu must be held.
func (s *Scene) detach(h *hosted) {
	for i := len(h.parts) - 1; i >= 0; i-- {
		part := h.parts[i]
		part.comp.Disable()
		part.ctx.Release()
	}
	h.parts = nil
}

// Destroy disables id's components, then removes the entity.
func (s *Scene) Destroy(id entity.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.destroy(id)
}

func (s *Scene) destroy(id entity.ID) error {
	h, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("destroy %s: %w", id, ErrUnknownEntity)
	}
	s.detach(h)
	delete(s.entities, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if err := s.world.Destroy(id); err != nil {
		return fmt.Errorf("destroy %s: %w", id, err)
	}
	s.logger.Debug().Str("entity", h.spec.Name).Stringer("id", id).Msg("destroyed")
	s.updateGauges()
	return nil
}

// Entity returns the id of the entity spawned with name.
func (s *Scene) Entity(name string) (entity.ID, bool) {
	return s.world.Find(name)
}

// Components returns the component type names attached to id, in
// enable order.
func (s *Scene) Components(id entity.ID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.entities[id]
	if !ok {
		return nil
	}
	out := make([]string, len(h.parts))
	for i, p := range h.parts {
		out[i] = p.typ
	}
	return out
}

// Component returns the first component of type typ attached to id.
func (s *Scene) Component(id entity.ID, typ string) (lifecycle.Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	for _, p := range h.parts {
		if p.typ == typ {
			return p.comp, true
		}
	}
	return nil, false
}

// Tick advances game time by dt, runs due deferred tasks, updates every
// component implementing lifecycle.Updater and publishes system.tick with
// dt and the tick number.
//
// The update list is captured after deferred tasks have run, so entities
// spawned or destroyed by a task are reflected in the same tick.
func (s *Scene) Tick(dt time.Duration) error {
	if s.isClosed() {
		return ErrClosed
	}

	now := time.Duration(s.now.Add(int64(dt)))
	s.queue.Poll(now)

	s.mu.Lock()
	var updaters []lifecycle.Updater
	for _, id := range s.order {
		for _, p := range s.entities[id].parts {
			if u, ok := p.comp.(lifecycle.Updater); ok {
				updaters = append(updaters, u)
			}
		}
	}
	s.mu.Unlock()

	for _, u := range updaters {
		u.Update(dt)
	}
	n := s.ticks.Add(1)
	s.system.ToAll(event.On(catalog.Tick), dt, int(n))
	return nil
}

func (s *Scene) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Run ticks the scene until ctx is cancelled or the configured tick count
// is reached. With Tick.Realtime set it waits one interval between ticks.
func (s *Scene) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	tick := s.Config().Tick
	interval := tick.Interval()
	if interval <= 0 {
		interval = config.Default().Tick.Interval()
	}

	var ticker *time.Ticker
	if tick.Realtime {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	s.logger.Info().
		Dur("interval", interval).
		Int("count", tick.Count).
		Bool("realtime", tick.Realtime).
		Msg("scene running")

	for done := 0; tick.Count == 0 || done < tick.Count; done++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.Tick(interval); err != nil {
			return err
		}
	}
	return nil
}

// Reload applies cfg to a running scene: bus debug is switched, entities no
// longer listed are destroyed, new ones are spawned and entities whose spec
// changed are respawned. It publishes system.config_reloaded afterwards.
func (s *Scene) Reload(cfg config.Config) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.cfg
	s.cfg = cfg
	s.bus.SetDebug(cfg.Bus.Debug)

	wanted := make(map[string]config.EntitySpec, len(cfg.Entities))
	for _, spec := range cfg.Entities {
		wanted[spec.Name] = spec
	}

	var errs []error
	for _, id := range append([]entity.ID(nil), s.order...) {
		h := s.entities[id]
		spec, keep := wanted[h.spec.Name]
		if keep && reflect.DeepEqual(spec, h.spec) {
			delete(wanted, h.spec.Name)
			continue
		}
		if err := s.destroy(id); err != nil {
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()

	// Spawn in file order.
	for _, spec := range cfg.Entities {
		if _, ok := wanted[spec.Name]; !ok {
			continue
		}
		if _, err := s.Spawn(spec); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info().
		Int("entities", s.world.Len()).
		Bool("bus_debug", cfg.Bus.Debug).
		Bool("tick_changed", old.Tick != cfg.Tick).
		Msg("scene reloaded")
	s.system.ToAll(event.On(catalog.ConfigReloaded), s.world.Len())
	return errors.Join(errs...)
}

// QueueReload schedules Reload to run at the start of the next tick, on the
// goroutine driving Tick. Errors are logged.
func (s *Scene) QueueReload(cfg config.Config) {
	s.queue.At(s.Now(), func() {
		if err := s.Reload(cfg); err != nil {
			s.logger.Error().Err(err).Msg("reload failed")
		}
	})
}

// Close publishes system.scene_unloading, destroys every entity in reverse
// spawn order, drops pending tasks and closes the bus. It is idempotent.
func (s *Scene) Close() {
	if s.isClosed() {
		return
	}
	s.system.ToAll(event.On(catalog.SceneUnloading), s.world.Len())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	for i := len(s.order) - 1; i >= 0; i-- {
		if err := s.destroy(s.order[i]); err != nil {
			s.logger.Warn().Err(err).Msg("close")
		}
	}
	s.queue.Clear()
	s.bus.Close()
	s.logger.Info().Uint64("ticks", s.ticks.Load()).Msg("scene closed")
}

// updateGauges pushes population counts. s.mu must be held.
func (s *Scene) updateGauges() {
	if s.gauges == nil {
		return
	}
	s.gauges.SetEntities(s.world.Len())
	s.gauges.SetSubscriptions(s.bus.Count())
}
