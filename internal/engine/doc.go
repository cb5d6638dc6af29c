// Package engine implements latency-compensated cooldown prediction.
//
// The engine tracks ability cooldowns for a game client whose server only
// reports a cooldown after the fact, as a chat notification like
// "[CD] 4.5s". It bridges that gap in three steps:
//
//  1. On local item use, the use is logged with its wall-clock time and a
//     probe (a re-issue of the "use item" action) is scheduled a few ticks
//     out, so the server answers with the cooldown.
//  2. When a notification arrives, the logged use nearest to
//     now - latency is taken as its cause, and the item's ability decides
//     which cooldown starts.
//  3. The ledger holds one tick window per ability; the render layer asks
//     for progress every frame.
//
// ARCHITECTURE:
//
// Session owns the state of one connected session (Clock, Ledger,
// UsageLog, Scheduler) behind a single mutex. The tick loop and the
// network-receive path both call it directly. Engine is an optional
// single-writer driver that serializes host events through a FIFO queue and
// ticks the session on a timer.
//
// Time:
//   - Ticks order everything inside a session; windows are inclusive of
//     their end tick (expired only when now > end)
//   - Wall-clock milliseconds are used only to match notifications to uses
//
// Failures never reach the host. A notification that cannot be correlated
// is logged at debug level; the observable effect is that no overlay
// appears.
//
// Journal:
// With WithJournal, every input (tick, use, chat, reset) and every decision
// (probe sent, probes dropped, cooldown set, correlation rejected) is
// recorded with a content-addressed ID. Replay re-drives a fresh Session
// from the inputs and checks it reaches the same decisions.
package engine
