// Package component contains reference behavior components that talk to
// each other only through the event bus.
//
// Each component subscribes in Enable through its lifecycle.Context and
// relies on the host to release the context's guard after Disable. The
// package also provides a Registry of factories so scenes can be described
// in configuration files.
//
// Components:
//
//   - Health: tracks hit points from damage and heal events, announces death
//   - CameraShake: accumulates shake intensity from damage, decays per tick
//   - AudioTrigger: maps event kinds to audio cues played on a Sink
//   - Cooldown: gates ability use and re-enables it after a delay
package component
