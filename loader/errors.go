package loader

import (
	"fmt"

	"github.com/KushNee/zhang/ast"
)

// DuplicateIncludeError reports a file included more than once. The second
// visit is skipped; its directives appear exactly once in the result.
type DuplicateIncludeError struct {
	Pos  ast.Span
	Path string
}

func (e *DuplicateIncludeError) Error() string {
	return fmt.Sprintf("%s: file already included: %s", e.Pos.String(), e.Path)
}

func (e *DuplicateIncludeError) Kind() string       { return "DuplicateInclude" }
func (e *DuplicateIncludeError) Position() ast.Span { return e.Pos }

// IncludeNotFoundError reports an include glob that matched no files.
type IncludeNotFoundError struct {
	Pos     ast.Span
	Pattern string
}

func (e *IncludeNotFoundError) Error() string {
	return fmt.Sprintf("%s: include pattern matched no files: %q", e.Pos.String(), e.Pattern)
}

func (e *IncludeNotFoundError) Kind() string       { return "IncludeNotFound" }
func (e *IncludeNotFoundError) Position() ast.Span { return e.Pos }

// IoError reports a read or stat failure. Unlike the other diagnostics it
// aborts the load; the caller keeps serving the previous snapshot.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Err)
}

func (e *IoError) Kind() string       { return "IoError" }
func (e *IoError) Position() ast.Span { return ast.Span{Filename: e.Path} }
func (e *IoError) Unwrap() error      { return e.Err }
