package weft

import (
	"github.com/weftui/weft/internal/executor"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/lexer"
)

// The error taxonomy, re-exported so callers never import internal
// packages to match against it with errors.As.

// SyntaxError reports a malformed template at compile time, with the
// source position of the offense.
type SyntaxError = lexer.SyntaxError

// BindingError reports a failed data binding at render time: an
// unknown identifier, a bad operand type or a non-callable event
// handler.
type BindingError = expr.BindingError

// StructuralMismatch reports a violated executor invariant. It
// indicates a programming defect, not bad user input.
type StructuralMismatch = executor.StructuralMismatch

// Position is a source location carried by SyntaxError and
// BindingError. Line and Column are 1-based.
type Position = lexer.Position
