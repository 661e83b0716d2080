// Package directory provides read access to durable user records: the
// credential snapshot the engine cross-checks against a session.
//
// Two implementations are provided. [Postgres] reads a users table through
// database/sql and the lib/pq driver. [Memory] is a concurrency-safe map for
// tests and local demos.
//
// # Architecture boundaries
//
// A directory answers exactly one question: what does the user record look
// like right now. It does NOT decide whether a session is stale or whether a
// status is allowed through. Those rules live in the Engine.
//
// # What this package must NOT do
//
//   - Write user records.
//   - Report a missing user as anything other than [ErrNotFound].
//   - Report a connectivity problem as [ErrNotFound].
package directory
