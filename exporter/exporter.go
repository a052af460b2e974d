// Package exporter renders directives back into canonical ledger text.
// The export command uses it to dump a normalized directive stream, and the
// mutation service uses it to append new directives to source files.
//
// Normalization rules: dates print in the shortest layout preserving their
// precision, postings indent with two spaces and align their amounts,
// metadata sorts by key. A parsed-then-reprinted file is not guaranteed to
// be byte-identical to its source.
package exporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/KushNee/zhang/ast"
)

const indent = "  "

// Directive renders any directive to its canonical text, without a trailing
// newline.
func Directive(directive ast.Directive) string {
	switch d := directive.(type) {
	case *ast.Open:
		line := fmt.Sprintf("%s open %s", d.Date, d.Account)
		if len(d.Commodities) > 0 {
			line += " " + strings.Join(d.Commodities, ", ")
		}
		return withMetadata(line, d.Metadata)

	case *ast.Close:
		return withMetadata(fmt.Sprintf("%s close %s", d.Date, d.Account), d.Metadata)

	case *ast.Commodity:
		return withMetadata(fmt.Sprintf("%s commodity %s", d.Date, d.Name), d.Metadata)

	case *ast.Balance:
		line := fmt.Sprintf("%s balance %s %s", d.Date, d.Account, d.Amount)
		if d.HasPad() {
			line += fmt.Sprintf(" with pad %s", d.Pad)
		}
		return withMetadata(line, d.Metadata)

	case *ast.Price:
		return withMetadata(fmt.Sprintf("%s price %s %s", d.Date, d.Base, d.Amount), d.Metadata)

	case *ast.Document:
		return withMetadata(fmt.Sprintf("%s document %s %s", d.Date, d.Account, quote(d.Path)), d.Metadata)

	case *ast.Note:
		return withMetadata(fmt.Sprintf("%s note %s %s", d.Date, d.Account, quote(d.Description)), d.Metadata)

	case *ast.Event:
		return withMetadata(fmt.Sprintf("%s event %s %s", d.Date, quote(d.Name), quote(d.Value)), d.Metadata)

	case *ast.Custom:
		parts := []string{d.Date.String(), "custom", quote(d.Type)}
		for _, value := range d.Values {
			if value.Account != nil {
				parts = append(parts, string(*value.Account))
			} else {
				parts = append(parts, quote(value.Value()))
			}
		}
		return withMetadata(strings.Join(parts, " "), d.Metadata)

	case *ast.Transaction:
		return Transaction(d)

	default:
		return ""
	}
}

// Transaction renders a transaction with aligned posting amounts.
func Transaction(txn *ast.Transaction) string {
	header := []string{txn.Date.String(), txn.Flag}
	if txn.Payee != "" {
		header = append(header, quote(txn.Payee))
	}
	if txn.Narration != "" || txn.Payee != "" {
		header = append(header, quote(txn.Narration))
	}
	for _, tag := range txn.Tags {
		header = append(header, "#"+string(tag))
	}
	for _, link := range txn.Links {
		header = append(header, "^"+string(link))
	}

	lines := []string{strings.Join(header, " ")}
	lines = append(lines, metadataLines(txn.Metadata, indent)...)

	// Amounts align at two spaces past the widest account column
	width := 0
	for _, posting := range txn.Postings {
		if w := runewidth.StringWidth(postingHead(posting)); w > width {
			width = w
		}
	}

	for _, posting := range txn.Postings {
		line := indent + postingHead(posting)
		if tail := postingTail(posting); tail != "" {
			line = indent + runewidth.FillRight(postingHead(posting), width) + indent + tail
		}
		lines = append(lines, line)
		lines = append(lines, metadataLines(posting.Metadata, indent)...)
	}

	return strings.Join(lines, "\n")
}

// postingHead is the flag and account part of a posting line.
func postingHead(posting *ast.Posting) string {
	if posting.Flag != "" {
		return posting.Flag + " " + string(posting.Account)
	}
	return string(posting.Account)
}

// postingTail is everything after the account: amount, cost, price.
func postingTail(posting *ast.Posting) string {
	if posting.Amount == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(posting.Amount.String())

	if posting.Cost != nil {
		b.WriteString(" {")
		b.WriteString(posting.Cost.Amount.String())
		if posting.Cost.Date != nil {
			b.WriteString(", ")
			b.WriteString(posting.Cost.Date.String())
		}
		b.WriteString("}")
	}

	if posting.Price != nil {
		if posting.Total {
			b.WriteString(" @@ ")
		} else {
			b.WriteString(" @ ")
		}
		b.WriteString(posting.Price.String())
	}

	return b.String()
}

// Stream renders a directive sequence separated by blank lines, ending with
// a single trailing newline.
func Stream(directives ast.Directives) string {
	rendered := make([]string, 0, len(directives))
	for _, directive := range directives {
		if text := Directive(directive); text != "" {
			rendered = append(rendered, text)
		}
	}
	if len(rendered) == 0 {
		return ""
	}
	return strings.Join(rendered, "\n\n") + "\n"
}

// withMetadata appends sorted metadata lines to a directive line.
func withMetadata(line string, metadata []*ast.Metadata) string {
	lines := append([]string{line}, metadataLines(metadata, indent)...)
	return strings.Join(lines, "\n")
}

// metadataLines renders metadata sorted by key. Account values print bare;
// everything else is quoted.
func metadataLines(metadata []*ast.Metadata, prefix string) []string {
	if len(metadata) == 0 {
		return nil
	}

	sorted := make([]*ast.Metadata, len(metadata))
	copy(sorted, metadata)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})

	lines := make([]string, 0, len(sorted))
	for _, m := range sorted {
		if m.Value.IsAccount() {
			lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, m.Key, m.Value))
		} else {
			lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, m.Key, quote(m.Value.String())))
		}
	}
	return lines
}

// quote renders a string literal with the escapes the parser decodes.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
