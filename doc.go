// Package fpsem implements the floating-point semantics behind rigorous
// round-off error analysis.
//
// An expression is an immutable tree of exact rational constants,
// variables, arithmetic operators, and rounding operators. Three things
// happen to such a tree here: Infer finds the narrowest binary format in
// which a subexpression's value is provably exact, Simplify removes or
// tightens rounding operators using IEEE-754 exactness facts, and
// Evaluate computes a sound interval enclosure over a box of variable
// intervals, reporting every domain violation it finds on the way.
//
// All three are pure functions over their arguments, so they are safe to
// call concurrently on different expressions or boxes.
package fpsem
