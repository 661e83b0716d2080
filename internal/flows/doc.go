// Package flows contains pure-function orchestrators for every pipeline stage
// the Engine exposes.
//
// Each flow function (RunReload, RunAuthenticate, RunRecordPlatform,
// RunLogout) accepts a typed dependency struct and returns a classified
// result without side-effects beyond those dependencies. The Engine maps the
// classification onto its public rejection taxonomy, metrics, audit events
// and logs, which keeps the flows exhaustively testable with fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store and user directory.
// They do NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import sessiongate (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
//   - Log. Classification is returned to the caller, which decides.
package flows
