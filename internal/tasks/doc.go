// Package tasks runs the long-running recipe operations with progress reporting.
//
// # Add by URL
//
// [Workflow] is a single-slot task: it submits one URL for server-side extraction at a time.
// Its state is a tagged value ([AddState]) that moves Idle → Submitting → Succeeded | Failed.
//
//   - A submission while another is Submitting fails with [shared.ErrAlreadyInProgress] and makes
//     no call; the first submission is unaffected.
//   - Invalid URLs fail with [shared.ErrInvalidInput] before the slot is touched.
//   - A 2xx response without a usable record ends in Failed with reason
//     "unexpected response shape" ([shared.ErrMalformedResponse]), distinct from transport and
//     HTTP failures: the server may well have stored the recipe.
//   - An authorization rejection is handed to the session and ends in Failed.
//   - On success the record is inserted at the front of the collection.
//
// A terminal state stays visible until the next Submit resets the slot.
//
// # Progress Reporting
//
// Operations accept an optional progress channel. Updates are sent with select/default so a
// slow or absent reader never blocks the operation.
//
// # Export
//
// [ExportCollection] writes recipes to disk with a small worker pool and records the outcome of
// every file in a manifest.
package tasks
