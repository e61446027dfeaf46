// Package lower turns a resolved program into an ir.Module.
//
// Statements are lowered into the current block until a branch closes it.
// After that the block is unreachable and the remaining statements of the
// enclosing list are skipped. Control instructions are pushed on a control
// stack while their sub-blocks are lowered so that break, continue and
// break-if can find the construct they leave.
package lower
