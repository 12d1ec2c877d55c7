// Package script runs Lua components on the event bus.
//
// A script component owns one gopher-lua state with a restricted standard
// library (base, table, string, math). The chunk runs when the component is
// enabled and talks to the bus through these globals:
//
//	events.on(kind, fn)              -- subscribe, returns an id
//	events.once(kind, fn)            -- subscribe for a single delivery
//	events.off(id)                   -- unsubscribe, returns true if it existed
//	events.emit(kind, receivers, ...) -- publish; kind may be a list of kinds
//	self.id, self.name               -- the owning entity
//	entity.has_tag(id, tag), entity.add_tag(id, tag), entity.remove_tag(id, tag)
//	entity.find(name), entity.alive(id)
//	after(seconds, fn)               -- run fn later in game time
//	log(msg)
//
// receivers is "self", "all", "tag:<name>", an entity id or a list of ids.
// Entity ids are strings of the form "index:generation"; compare them with ==
// and pass them back unchanged. Handlers receive a table
// {id, kind, originator, params}, with originator nil for system events.
//
// If the script defines a global update(dt) it is called every tick with dt
// in seconds, and a global disable() is called before the component is
// detached.
//
// All Lua execution for one component is serialized. Events emitted from
// inside Lua are published after the current Lua call returns, so a script
// may safely emit events it listens to itself.
package script
