// Package trail keeps the bounded position history of every body.
//
// Two forms are provided:
//
//   - [Record]: a pure, copy-on-write append over [][]dynamo.Vec2 for
//     callers that thread immutable snapshots through successive ticks
//   - [Ring] and [Set]: fixed-capacity circular buffers with O(1) append
//     and eviction, used by the simulation driver
//
// Both keep the most recent capacity points per body, oldest first, and
// associate trajectory i with body i by position.
package trail
