// Package middleware adapts the sessiongate pipeline to net/http.
//
// A protected route is built from the stages in order:
//
//	RequestLogger -> Reload -> [RecordPlatform] -> Protect -> [Require...]
//
//   - [Reload] extracts a session id (cookie, header or bearer JWT) and
//     attaches the stored session.
//   - [Protect] authenticates it and attaches the Principal.
//   - [Require], [RequireActive] and [RequireAdmin] run authorization gates.
//   - [RecordPlatform] records the client platform tag and never rejects.
//
// [WriteRejection] maps pipeline errors to 401, 403 and 503 with a JSON body.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every decision
// is made by the Engine.
//
// # What this package must NOT do
//
//   - Access Redis or the user directory directly.
//   - Treat a bearer token as proof of authentication; it only names a session.
//   - Reveal to clients that a gate was wired without Protect.
package middleware
