package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gamebus/internal/component"
	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/lifecycle"
)

// Default limits for script execution.
const (
	DefaultCallTimeout = time.Second
)

// Errors returned by script components.
var (
	ErrNoSource    = errors.New("script has no source")
	ErrStateClosed = errors.New("script state is closed")
)

// Option configures a Component.
type Option func(*Component)

// WithCallTimeout bounds each Lua invocation. Zero disables the limit.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Component) {
		c.timeout = d
	}
}

// WithDebug marks every subscription made by the script for dispatch logging.
func WithDebug() Option {
	return func(c *Component) {
		c.debug = true
	}
}

type emission struct {
	desc    event.Descriptor
	payload event.Payload
}

// Component is a lifecycle.Component backed by a Lua chunk.
type Component struct {
	name    string
	source  string
	path    string
	timeout time.Duration
	debug   bool

	mu       sync.Mutex
	L        *lua.LState
	ctx      *lifecycle.Context
	handlers *lua.LTable
	subs     map[string]*event.Subscription
	nextID   uint64
	outbox   []emission
}

// FromSource creates a component that runs code. name identifies the script in logs.
func FromSource(name, code string, opts ...Option) *Component {
	c := &Component{name: name, source: code, timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromFile creates a component that runs the file at path.
func FromFile(path string, opts ...Option) *Component {
	c := &Component{name: filepath.Base(path), path: path, timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory returns a component.Factory for scene configuration. Parameters:
// "file" (resolved against baseDir when relative) or "source", optional
// "name", "timeout" and "debug".
func Factory(baseDir string) component.Factory {
	return func(p component.Params) (lifecycle.Component, error) {
		file, err := p.String("file", "")
		if err != nil {
			return nil, err
		}
		source, err := p.String("source", "")
		if err != nil {
			return nil, err
		}
		timeout, err := p.Duration("timeout", DefaultCallTimeout)
		if err != nil {
			return nil, err
		}

		opts := []Option{WithCallTimeout(timeout)}
		if debug, ok := p["debug"].(bool); ok && debug {
			opts = append(opts, WithDebug())
		}

		switch {
		case file != "" && source != "":
			return nil, errors.New("script: set either file or source, not both")
		case file != "":
			if !filepath.IsAbs(file) && baseDir != "" {
				file = filepath.Join(baseDir, file)
			}
			if _, err := os.Stat(file); err != nil {
				return nil, fmt.Errorf("script: %w", err)
			}
			return FromFile(file, opts...), nil
		case source != "":
			name, err := p.String("name", "inline")
			if err != nil {
				return nil, err
			}
			return FromSource(name, source, opts...), nil
		default:
			return nil, ErrNoSource
		}
	}
}

// Name returns the script name.
func (c *Component) Name() string {
	return c.name
}

// Enable creates the Lua state, installs the API and runs the chunk.
func (c *Component) Enable(ctx *lifecycle.Context) error {
	if c.source == "" && c.path == "" {
		return ErrNoSource
	}

	L := newState()

	c.mu.Lock()
	c.L = L
	c.ctx = ctx
	c.subs = make(map[string]*event.Subscription)
	c.handlers = L.NewTable()
	L.SetGlobal("_gamebus_handlers", c.handlers)
	c.register(L)
	c.mu.Unlock()

	err := c.call(func(L *lua.LState) error {
		if c.path != "" {
			return L.DoFile(c.path)
		}
		return L.DoString(c.source)
	})
	if err != nil {
		c.Disable()
		return fmt.Errorf("script %s: %w", c.name, err)
	}
	return nil
}

// Disable calls the script's disable hook, drops its subscriptions and
// closes the Lua state.
func (c *Component) Disable() {
	if err := c.callGlobal("disable"); err != nil && !errors.Is(err, ErrStateClosed) {
		l := c.logger()
		l.Warn().Err(err).Str("script", c.name).Msg("disable hook failed")
	}

	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	L := c.L
	c.L = nil
	c.handlers = nil
	c.outbox = nil
	c.mu.Unlock()

	if c.ctx != nil {
		for _, sub := range subs {
			c.ctx.Guard().Unsubscribe(sub)
		}
	}
	if L != nil {
		L.Close()
	}
}

// Update calls the script's update(dt) hook, if defined.
func (c *Component) Update(dt time.Duration) {
	if err := c.callGlobal("update", lua.LNumber(dt.Seconds())); err != nil && !errors.Is(err, ErrStateClosed) {
		l := c.logger()
		l.Warn().Err(err).Str("script", c.name).Msg("update failed")
	}
}

// Subscriptions returns the number of live script subscriptions.
func (c *Component) Subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// call runs fn with exclusive access to the Lua state, then flushes any
// events emitted during the call.
func (c *Component) call(fn func(L *lua.LState) error) error {
	c.mu.Lock()
	L := c.L
	if L == nil {
		c.mu.Unlock()
		return ErrStateClosed
	}

	var cancel context.CancelFunc
	if c.timeout > 0 {
		var luaCtx context.Context
		luaCtx, cancel = context.WithTimeout(context.Background(), c.timeout)
		L.SetContext(luaCtx)
	}

	err := fn(L)

	if cancel != nil {
		L.RemoveContext()
		cancel()
	}
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	c.flush(pending)
	return err
}

func (c *Component) flush(pending []emission) {
	if c.ctx == nil {
		return
	}
	for _, e := range pending {
		c.ctx.Bus.Publish(e.desc, e.payload)
	}
}

// callGlobal calls a global function if the script defines it.
func (c *Component) callGlobal(name string, args ...lua.LValue) error {
	return c.call(func(L *lua.LState) error {
		fn, ok := L.GetGlobal(name).(*lua.LFunction)
		if !ok {
			return nil
		}
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	})
}

func (c *Component) logger() zerolog.Logger {
	if c.ctx == nil {
		return zerolog.Nop()
	}
	return c.ctx.Logger
}

// newState creates a Lua state with only safe libraries opened.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base functions that reach the file system or load arbitrary code.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
