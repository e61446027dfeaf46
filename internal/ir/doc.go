// Package ir is the block-based, operand-linked intermediate representation.
//
// A Module owns a root block of module-scope variables and a list of
// Functions. Every Function has a start Block. A Block is a list of
// Instructions closed by exactly one Branch. Control instructions (If, Loop,
// Switch) are branches that own sub-blocks; exit instructions (ExitIf,
// ExitSwitch, ExitLoop, Continue, NextIteration, BreakIf) close those
// sub-blocks and are registered on the control instruction they leave.
//
// Instructions live in a per-module arena and are addressed by
// generation-checked InstID handles, so a block's prev/next links never
// dangle after an instruction is removed or destroyed.
//
// Structural misuse (inserting an attached instruction, removing a foreign
// one, destroying a value that is still used) panics with *Error.
package ir
