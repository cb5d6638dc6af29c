// Package ir provides the shared record types for the hotbar engine.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Ticks and wall-clock milliseconds are int64
//   - Item stacks are opaque to the engine; only the item metadata service
//     interprets their tags
//   - Journal data uses canonical JSON (no floats) so entry IDs are stable
//   - All JSON tags use snake_case
package ir
