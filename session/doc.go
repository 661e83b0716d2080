// Package session provides the Redis-backed session store and the compact
// binary encoding of session records.
//
// # Binary encoding
//
// Records are stored as a versioned binary payload (schema v1–v2). Version 1
// predates last-seen tracking and decodes with LastSeenAt equal to IssuedAt.
// The encoder is append-only: new versions add fields but never reinterpret
// old ones.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model.
// It does NOT look up users, compare credential timestamps, or decide whether
// a request is authenticated. Those decisions belong to the Engine.
//
// # What this package must NOT do
//
//   - Import sessiongate, directory, or middleware (no upward imports).
//   - Extend a session's TTL. Lifetime is set once by whoever calls Save.
//   - Treat a missing record as a failure. Absence is reported as [ErrNotFound].
package session
