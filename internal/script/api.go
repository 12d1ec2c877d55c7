package script

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
)

// register installs the script API. Functions registered here only run
// inside call, with c.mu held.
func (c *Component) register(L *lua.LState) {
	events := L.NewTable()
	L.SetField(events, "on", L.NewFunction(c.luaOn))
	L.SetField(events, "once", L.NewFunction(c.luaOnce))
	L.SetField(events, "off", L.NewFunction(c.luaOff))
	L.SetField(events, "emit", L.NewFunction(c.luaEmit))
	L.SetGlobal("events", events)

	self := L.NewTable()
	L.SetField(self, "id", luaID(c.ctx.Owner))
	name := ""
	if c.ctx.World != nil {
		name = c.ctx.World.Name(c.ctx.Owner)
	}
	L.SetField(self, "name", lua.LString(name))
	L.SetGlobal("self", self)

	ent := L.NewTable()
	L.SetField(ent, "has_tag", L.NewFunction(c.luaHasTag))
	L.SetField(ent, "add_tag", L.NewFunction(c.luaAddTag))
	L.SetField(ent, "remove_tag", L.NewFunction(c.luaRemoveTag))
	L.SetField(ent, "find", L.NewFunction(c.luaFind))
	L.SetField(ent, "alive", L.NewFunction(c.luaAlive))
	L.SetGlobal("entity", ent)

	L.SetGlobal("after", L.NewFunction(c.luaAfter))
	L.SetGlobal("log", L.NewFunction(c.luaLog))
	L.SetGlobal("print", L.NewFunction(c.luaLog))
}

// on(kind, fn) -> id
func (c *Component) luaOn(L *lua.LState) int {
	return c.subscribe(L, false)
}

// once(kind, fn) -> id
func (c *Component) luaOnce(L *lua.LState) int {
	return c.subscribe(L, true)
}

func (c *Component) subscribe(L *lua.LState, once bool) int {
	kind := c.checkKind(L, 1)
	fn := L.CheckFunction(2)

	c.nextID++
	localID := c.name + "_" + strconv.FormatUint(c.nextID, 10)
	c.handlers.RawSetString(localID, fn)

	opts := []event.SubscriptionOption{event.WithName("script." + localID)}
	if once {
		opts = append(opts, event.WithOnce())
	}
	if c.debug {
		opts = append(opts, event.WithDebug())
	}

	sub, err := c.ctx.Subscribe(event.On(kind), c.handler(localID, kind, once), opts...)
	if err != nil {
		c.handlers.RawSetString(localID, lua.LNil)
		L.RaiseError("events.on: %v", err)
		return 0
	}
	c.subs[localID] = sub

	L.Push(lua.LString(localID))
	return 1
}

// handler returns the bus handler that invokes the Lua function stored under localID.
func (c *Component) handler(localID string, kind catalog.Kind, once bool) event.Handler {
	return event.HandlerFunc(func(p event.Payload) error {
		return c.call(func(L *lua.LState) error {
			if c.handlers == nil {
				return nil
			}
			fn, ok := c.handlers.RawGetString(localID).(*lua.LFunction)
			if !ok {
				return nil
			}
			if once {
				c.forget(localID)
			}
			return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, payloadTable(L, kind, p))
		})
	})
}

// forget drops the bookkeeping for a subscription. c.mu must be held.
func (c *Component) forget(localID string) *event.Subscription {
	sub := c.subs[localID]
	delete(c.subs, localID)
	if c.handlers != nil {
		c.handlers.RawSetString(localID, lua.LNil)
	}
	if sub != nil {
		c.ctx.Guard().Unsubscribe(sub)
	}
	return sub
}

// off(id) -> bool
func (c *Component) luaOff(L *lua.LState) int {
	localID := L.CheckString(1)
	if _, ok := c.subs[localID]; !ok {
		L.Push(lua.LFalse)
		return 1
	}
	c.forget(localID)
	L.Push(lua.LTrue)
	return 1
}

// emit(kind | {kinds}, receivers, ...params)
func (c *Component) luaEmit(L *lua.LState) int {
	var kinds []catalog.Kind
	switch v := L.Get(1).(type) {
	case lua.LString:
		kinds = append(kinds, c.checkKind(L, 1))
	case *lua.LTable:
		v.ForEach(func(_, item lua.LValue) {
			k, err := catalog.ParseKind(item.String())
			if err != nil {
				L.ArgError(1, err.Error())
			}
			kinds = append(kinds, k)
		})
	default:
		L.ArgError(1, "kind or list of kinds expected")
		return 0
	}

	receivers, err := parseReceivers(L.Get(2))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}

	var params []any
	for i := 3; i <= L.GetTop(); i++ {
		params = append(params, toGo(L.Get(i)))
	}

	c.outbox = append(c.outbox, emission{
		desc:    event.On(kinds...),
		payload: event.NewPayload(c.ctx.Owner, receivers, params...),
	})
	return 0
}

func (c *Component) checkKind(L *lua.LState, n int) catalog.Kind {
	s := L.CheckString(n)
	k, err := catalog.ParseKind(s)
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return k
}

// has_tag(id, tag) -> bool
func (c *Component) luaHasTag(L *lua.LState) int {
	id := checkEntity(L, 1)
	tag := L.CheckString(2)
	L.Push(lua.LBool(c.ctx.World != nil && c.ctx.World.HasTag(id, entity.Tag(tag))))
	return 1
}

// add_tag(id, tag) -> bool
func (c *Component) luaAddTag(L *lua.LState) int {
	id := checkEntity(L, 1)
	tag := L.CheckString(2)
	ok := c.ctx.World != nil && c.ctx.World.AddTag(id, entity.Tag(tag)) == nil
	L.Push(lua.LBool(ok))
	return 1
}

// remove_tag(id, tag) -> bool
func (c *Component) luaRemoveTag(L *lua.LState) int {
	id := checkEntity(L, 1)
	tag := L.CheckString(2)
	ok := c.ctx.World != nil && c.ctx.World.RemoveTag(id, entity.Tag(tag)) == nil
	L.Push(lua.LBool(ok))
	return 1
}

// find(name) -> id | nil
func (c *Component) luaFind(L *lua.LState) int {
	name := L.CheckString(1)
	if c.ctx.World == nil {
		L.Push(lua.LNil)
		return 1
	}
	id, ok := c.ctx.World.Find(name)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(luaID(id))
	return 1
}

// alive(id) -> bool
func (c *Component) luaAlive(L *lua.LState) int {
	id := checkEntity(L, 1)
	L.Push(lua.LBool(c.ctx.World != nil && c.ctx.World.Alive(id)))
	return 1
}

// after(seconds, fn) -> task id
func (c *Component) luaAfter(L *lua.LState) int {
	secs := float64(L.CheckNumber(1))
	fn := L.CheckFunction(2)

	c.nextID++
	key := c.name + "_task_" + strconv.FormatUint(c.nextID, 10)
	c.handlers.RawSetString(key, fn)

	delay := time.Duration(secs * float64(time.Second))
	id, err := c.ctx.After(delay, func() {
		err := c.call(func(L *lua.LState) error {
			if c.handlers == nil {
				return nil
			}
			fn, ok := c.handlers.RawGetString(key).(*lua.LFunction)
			if !ok {
				return nil
			}
			c.handlers.RawSetString(key, lua.LNil)
			return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		})
		if err != nil && err != ErrStateClosed {
			l := c.logger()
			l.Warn().Err(err).Str("script", c.name).Msg("deferred call failed")
		}
	})
	if err != nil {
		c.handlers.RawSetString(key, lua.LNil)
		L.RaiseError("after: %v", err)
		return 0
	}
	L.Push(lua.LNumber(id))
	return 1
}

// log(...)
func (c *Component) luaLog(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	l := c.logger()
	l.Info().Str("script", c.name).Stringer("entity", c.ctx.Owner).Msg(strings.Join(parts, " "))
	return 0
}

// Entity ids cross into Lua as "index:generation" strings. Lua numbers are
// float64 and cannot hold every 64-bit id.
func luaID(id entity.ID) lua.LValue {
	if id.IsNil() {
		return lua.LNil
	}
	return lua.LString(id.String())
}

func checkEntity(L *lua.LState, n int) entity.ID {
	id, err := entity.ParseID(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return id
}

// parseReceivers converts a Lua receivers argument.
func parseReceivers(v lua.LValue) (event.Receivers, error) {
	switch r := v.(type) {
	case lua.LString:
		s := string(r)
		switch {
		case s == "self":
			return event.Self(), nil
		case s == "all" || s == "broadcast":
			return event.Broadcast(), nil
		case strings.HasPrefix(s, "tag:"):
			return event.Tagged(entity.Tag(strings.TrimPrefix(s, "tag:"))), nil
		}
		id, err := entity.ParseID(s)
		if err != nil {
			return event.Receivers{}, fmt.Errorf("unknown receivers %q", s)
		}
		return event.Entities(id), nil
	case *lua.LTable:
		var (
			ids []entity.ID
			bad error
		)
		r.ForEach(func(_, item lua.LValue) {
			id, err := entity.ParseID(item.String())
			if err != nil {
				bad = err
				return
			}
			ids = append(ids, id)
		})
		if bad != nil {
			return event.Receivers{}, bad
		}
		return event.Entities(ids...), nil
	case *lua.LNilType:
		return event.Broadcast(), nil
	default:
		return event.Receivers{}, fmt.Errorf("receivers must be a string or list of ids, got %s", v.Type())
	}
}

// payloadTable converts a payload for a Lua handler.
func payloadTable(L *lua.LState, kind catalog.Kind, p event.Payload) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("id", lua.LString(p.ID()))
	tbl.RawSetString("kind", lua.LString(kind.String()))
	tbl.RawSetString("originator", luaID(p.Originator()))

	params := L.NewTable()
	for i, v := range p.Params() {
		params.RawSetInt(i+1, toLua(L, v))
	}
	tbl.RawSetString("params", params)
	return tbl
}

// toLua converts a Go value to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case time.Duration:
		return lua.LNumber(val.Seconds())
	case entity.ID:
		return luaID(val)
	case catalog.Kind:
		return lua.LString(val.String())
	case []any:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, toLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// toGo converts a Lua value to a Go value. Numbers become float64 and
// array-like tables become []any.
func toGo(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.Len(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGo(val.RawGetInt(i)))
			}
			return arr
		}
		m := make(map[string]any)
		val.ForEach(func(k, item lua.LValue) {
			m[k.String()] = toGo(item)
		})
		return m
	default:
		return v.String()
	}
}
