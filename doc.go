// Package sessiongate validates server-side sessions and authorizes requests.
//
// A request passes through the pipeline in a fixed order:
//
//	Reload -> Authenticate -> zero or more Gates (IsActive, IsAdmin, ...)
//
// [Engine.Reload] loads the session record from Redis, [Engine.Authenticate]
// cross-checks it against the user directory and rejects sessions whose user
// was deleted or whose credential changed at or after issuance, and
// [Engine.Authorize] runs the [Gate] predicates over the resulting
// [Principal]. Every stage returns a new context; downstream code reads the
// outcome with [PrincipalFromContext] and [SessionFromContext].
//
// Every failure is a [*Rejection] classified as Unauthenticated, Forbidden,
// Unavailable or Misuse. Unavailable means "retry later" and is never used
// for a known-invalid session. Misuse (a gate with no Principal) fails
// closed: errors.Is(err, ErrForbidden) holds for it.
//
// [Engine.RecordPlatform] is a side channel whose failures are logged and
// counted but never returned.
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Engine], [Builder], [Config],
// the rejection taxonomy and the context accessors. Flow orchestration and
// audit dispatch live under internal/; Redis encoding lives in the session
// package and SQL access in the directory package.
//
// # What this package must NOT do
//
//   - Create sessions or hash credentials. Session issuance belongs to the
//     login service.
//   - Take application-level locks around session writes. Concurrent
//     last-seen updates of one session are last write wins.
//   - Let any error other than *Rejection leave a pipeline method.
package sessiongate
