// Package ast is the resolved, tree-shaped program consumed by lowering.
//
// A front end hands over a Program whose expressions already carry their
// resolved type and, for constant expressions, their folded value. Memory
// reads are explicit Load nodes. Declarations are stored in dependency order.
//
// Builder constructs such programs directly; it is what tests and the CLI
// demo use in place of a parser.
package ast
