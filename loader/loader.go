// Package loader reads a ledger tree from disk. Starting from a root file it
// resolves include globs, drives the parser over every matched file, and
// splices all directives into a single AST sorted by date.
//
// Include patterns are resolved relative to the directory of the including
// file. A file visited twice is skipped with a diagnostic; a pattern matching
// no files is a diagnostic as well. Only I/O failures abort a load.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KushNee/zhang/ast"
	"github.com/KushNee/zhang/parser"
)

// File is one entry of the file registry: everything the watcher and the
// mutation service need to know about a source file.
type File struct {
	Path    string // absolute path
	Bytes   []byte
	ModTime time.Time
}

// Result is the output of one load: the merged directive tree, the registry
// of every file read, and the non-fatal diagnostics gathered along the way.
type Result struct {
	AST   *ast.AST
	Root  string // absolute path of the root ledger file
	Files []*File
	Errs  []error
}

// Source returns the bytes of the registered file at path, or nil.
func (r *Result) Source(path string) []byte {
	for _, f := range r.Files {
		if f.Path == path {
			return f.Bytes
		}
	}
	return nil
}

// Loader loads ledger files with include resolution.
type Loader struct{}

// New creates a new Loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the root file and every file reachable through include globs,
// returning the merged result. An I/O failure aborts the load and is
// returned as an *IoError; syntax and include problems are collected in
// Result.Errs instead.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, &IoError{Path: filename, Err: err}
	}

	state := &loaderState{
		visited: make(map[string]bool),
		result: &Result{
			AST:  &ast.AST{},
			Root: absPath,
		},
	}

	if err := state.loadFile(ctx, absPath, ast.Span{}); err != nil {
		return nil, err
	}

	ast.SortDirectives(state.result.AST)
	return state.result, nil
}

// loaderState tracks the visited set and accumulates the merged result.
type loaderState struct {
	visited map[string]bool
	result  *Result
}

// loadFile parses one file and recurses into its includes in source order.
// from is the span of the include directive that referenced the file; it is
// zero for the root.
func (l *loaderState) loadFile(ctx context.Context, absPath string, from ast.Span) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if l.visited[absPath] {
		l.result.Errs = append(l.result.Errs, &DuplicateIncludeError{Pos: from, Path: absPath})
		return nil
	}
	l.visited[absPath] = true

	data, err := os.ReadFile(absPath)
	if err != nil {
		return &IoError{Path: absPath, Err: err}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return &IoError{Path: absPath, Err: err}
	}

	l.result.Files = append(l.result.Files, &File{
		Path:    absPath,
		Bytes:   data,
		ModTime: info.ModTime(),
	})

	tree, parseErrs := parser.ParseBytes(absPath, data)
	for _, perr := range parseErrs {
		l.result.Errs = append(l.result.Errs, perr)
	}

	l.result.AST.Directives = append(l.result.AST.Directives, tree.Directives...)
	l.result.AST.Options = append(l.result.AST.Options, tree.Options...)
	l.result.AST.Plugins = append(l.result.AST.Plugins, tree.Plugins...)
	l.result.AST.Includes = append(l.result.AST.Includes, tree.Includes...)

	baseDir := filepath.Dir(absPath)
	for _, inc := range tree.Includes {
		matches, err := l.expand(baseDir, inc)
		if err != nil {
			return err
		}
		for _, match := range matches {
			if err := l.loadFile(ctx, match, inc.Pos); err != nil {
				return err
			}
		}
	}

	return nil
}

// expand resolves an include glob relative to the including file's directory.
// Matches come back sorted so load order is deterministic regardless of
// filesystem iteration order.
func (l *loaderState) expand(baseDir string, inc *ast.Include) ([]string, error) {
	pattern := inc.Path
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(baseDir, pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &IoError{Path: pattern, Err: err}
	}

	if len(matches) == 0 {
		l.result.Errs = append(l.result.Errs, &IncludeNotFoundError{Pos: inc.Pos, Pattern: inc.Path})
		return nil, nil
	}

	sort.Strings(matches)

	resolved := make([]string, 0, len(matches))
	for _, match := range matches {
		abs, err := filepath.Abs(match)
		if err != nil {
			return nil, &IoError{Path: match, Err: err}
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}
