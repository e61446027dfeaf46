// Package diag defines the diagnostic model shared by lowering, validation
// and the CLI.
//
// Two classes of findings travel through it:
//
//   - Internal consistency errors ("ICE"): an unhandled AST or instruction
//     variant, a violated structural precondition, or a malformed graph found
//     by the validator. Their codes live in the IR range (see codes.go).
//   - Everything else is reserved for front ends; lowering never re-checks
//     source-level semantics.
//
// Package diag performs no formatting or IO. The CLI renders diagnostics.
package diag
