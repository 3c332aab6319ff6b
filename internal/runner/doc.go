// Package runner executes exactly one task per isolated OS process and
// reports exactly one outcome record per execution attempt.
//
// It is intentionally split into:
//   - The in-process state machine (TaskProcess): dependency gate,
//     guarded execution, post-condition check, outcome emission
//   - The process boundary (Spawn/Handle/ChildMain): self re-exec with a
//     dedicated outcome pipe and its own process group
//   - Forced termination: descendant enumeration and bounded-wait kill
//
// The outcome record is the one bit-exact contract external consumers
// rely on; in particular the new_deps field is tri-state (absent, empty,
// populated) and the JSON wire form preserves absent as null.
package runner
