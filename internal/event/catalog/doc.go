// Package catalog defines the event taxonomy used by the dispatch bus.
//
// # Kinds
//
// Every event kind belongs to exactly one category and is written in dot
// notation as "category.name":
//
//	gameplay.player_damaged
//	options.volume_changed
//	system.scene_loaded
//	custom.door_opened
//
// Kinds are plain comparable values. They carry no behavior and are used as
// map keys by the bus.
//
// # Categories
//
// A category is declared once as a Category constant, and its kinds are
// declared as package-level values with Category.Kind:
//
//	const Puzzle catalog.Category = "puzzle"
//
//	var (
//	    LeverPulled = Puzzle.Kind("lever_pulled")
//	    DoorOpened  = Puzzle.Kind("door_opened")
//	)
//
// Adding a category never touches the bus or the existing categories.
//
// # Lookup
//
// ParseKind converts the dot form back into a Kind, which is how scripts and
// configuration files name kinds. Known lists every kind that was declared
// through Category.Kind.
package catalog
