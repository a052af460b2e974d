package parser

import (
	"fmt"

	"github.com/KushNee/zhang/ast"
)

// Error is a structured syntax diagnostic. The parser records one Error per
// failure and recovers to the next top-level line, so a single pass gathers
// as many diagnostics as possible.
type Error struct {
	Pos     ast.Span
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Message)
}

// Kind names the diagnostic class for API consumers.
func (e *Error) Kind() string { return "ParseError" }

// Position returns the span pointing at the offending token.
func (e *Error) Position() ast.Span { return e.Pos }
