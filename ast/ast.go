// Package ast declares the types used to represent syntax trees for zhang
// ledger files.
//
// These types represent the structure of ledger directives, transactions, and
// related elements that make up a zhang ledger. The AST can be created by
// parsing a ledger file using the parser package, or constructed
// programmatically for generating ledger output.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directives is a slice of Directive that implements sort.Interface.
type Directives []Directive

func (d Directives) Len() int           { return len(d) }
func (d Directives) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d Directives) Less(i, j int) bool { return compareDirectives(d[i], d[j]) < 0 }

// compareDirectives compares two directives by their normalized datetime.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// Same-instant directives compare equal; a stable sort preserves their
// source order, so a balance assertion written after a transaction on the
// same day sees that transaction's effect.
func compareDirectives(a, b Directive) int {
	ak, bk := a.date().SortKey(), b.date().SortKey()
	switch {
	case ak < bk:
		return -1
	case ak > bk:
		return 1
	default:
		return 0
	}
}

// AST represents a parsed ledger file containing directives and the
// non-dated top-level elements (options, includes, plugins).
type AST struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include
	Plugins    []*Plugin
}

// WithMetadata is an interface for AST nodes that can have metadata attached.
type WithMetadata interface {
	AddMetadata(...*Metadata)
}

// withMetadata is an embeddable struct that implements WithMetadata.
type withMetadata struct {
	Metadata []*Metadata
}

func (w *withMetadata) AddMetadata(m ...*Metadata) {
	w.Metadata = append(w.Metadata, m...)
}

// HasMetadata reports whether any metadata lines are attached.
func (w *withMetadata) HasMetadata() bool { return len(w.Metadata) > 0 }

// Meta looks up the first metadata value for key, or "".
func (w *withMetadata) Meta(key string) string {
	for _, m := range w.Metadata {
		if m.Key == key {
			return m.Value.String()
		}
	}
	return ""
}

// Directive is the interface implemented by all ledger directive types.
type Directive interface {
	WithMetadata

	date() *Date
	Directive() string
	Position() Span
}

// SortDirectives sorts all directives by their normalized datetime,
// preserving source order between directives on the same instant.
//
// This is called by the loader after splicing included files, but can be
// called on a manually constructed AST.
func SortDirectives(tree *AST) {
	if isSorted(tree.Directives) {
		return
	}
	slices.SortStableFunc(tree.Directives, compareDirectives)
}

// isSorted checks if directives are already sorted by date.
func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if d.Less(i, i-1) {
			return false
		}
	}
	return true
}
