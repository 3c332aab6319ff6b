// Package core defines the task and target contracts consumed by the
// execution engine.
//
// It is intentionally split into:
//   - The required Task surface: identity, dependencies, outputs, run
//   - Optional capabilities (completion predicate, success/failure hooks,
//     per-task timeout, progress reporting) resolved by interface assertion
//   - The pure dependency verifier and its discrepancy formatting
//
// Task identity is computed from the task's family name and canonicalized
// parameters, making it stable across processes and invariant to parameter
// declaration order. Identity never invokes user run logic.
//
// Construction-time integrity errors (a task built without its base
// initialization, an unknown registry family) are a distinct error kind
// from runtime task failures and are never reported on the result channel.
package core
