// Package harness runs scripted play sessions against the cooldown engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: frostbolt
//	description: "Probe fires, notification sets the cooldown"
//	session: s
//	config:
//	  probe_delay_ticks: 2
//	items:
//	  frost_staff:
//	    id: minecraft:stick
//	    count: 1
//	    tags:
//	      MMOITEMS_ABILITY: '[{"Id":"FROSTBOLT"}]'
//	steps:
//	  - use: frost_staff
//	  - tick: 2
//	  - latency_ms: 150
//	  - chat: "[CD] 2.0s"
//	  - assert: { type: cooldown, ability: FROSTBOLT, start: 2, end: 42 }
//	assertions:
//	  - type: probes_sent
//	    count: 1
//
// # Steps
//
// Each step sets exactly one of: tick, use (with optional hand and
// spectator), chat, advance_ms, latency_ms, join, disconnect, channel_down,
// channel_up, in_world, set_global, set_enabled, assert.
//
// # Assertion Types
//
//   - progress: overlay progress of an ability at a partial tick
//   - cooldown: exact [start, end] window of an ability
//   - no_cooldown: the ability has no window
//   - probes_sent: probes delivered to the channel so far
//   - pending_probes: probes still queued
//   - tick: the session clock
//
// # Deterministic Testing
//
// The harness uses:
//   - A manual wall clock advanced by tick_interval per tick
//   - Sequential session tokens ("<session>-1", "<session>-2", ...)
//   - An in-memory journal (optionally teed to a SQLite store)
//
// Golden files in testdata/golden hold the canonical JSON of every
// decision a scenario produced.
package harness
