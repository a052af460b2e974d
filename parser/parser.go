package parser

import (
	"fmt"

	"github.com/KushNee/zhang/ast"
)

// Parser is a recursive-descent parser over the token stream produced by the
// Lexer. Errors never abort the parse: each failed directive is recorded as a
// structured Error and the parser resynchronizes at the next top-level line.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
	interner *Interner
	errors   []*Error
}

// ParseBytes parses ledger source into an AST plus any syntax diagnostics.
// Directives keep their source order; sorting by date is the loader's job.
func ParseBytes(filename string, source []byte) (*ast.AST, []*Error) {
	lexer := NewLexer(source, filename)
	tokens := lexer.ScanAll()

	p := &Parser{
		source:   source,
		filename: filename,
		tokens:   tokens,
		interner: lexer.Interner(),
	}

	tree := p.parseFile()
	return tree, p.errors
}

// ParseString parses ledger source from a string.
func ParseString(filename, source string) (*ast.AST, []*Error) {
	return ParseBytes(filename, []byte(source))
}

// parseFile drives the top-level loop: one directive per line group.
func (p *Parser) parseFile() *ast.AST {
	tree := &ast.AST{}

	for !p.isAtEnd() {
		tok := p.peek()

		switch tok.Type {
		case NEWLINE:
			p.advance()
			continue

		case OPTION:
			if opt := p.parseOption(); opt != nil {
				tree.Options = append(tree.Options, opt)
			}

		case INCLUDE:
			if inc := p.parseInclude(); inc != nil {
				tree.Includes = append(tree.Includes, inc)
			}

		case PLUGIN:
			if plug := p.parsePlugin(); plug != nil {
				tree.Plugins = append(tree.Plugins, plug)
			}

		case DATE:
			if directive := p.parseDated(); directive != nil {
				tree.Directives = append(tree.Directives, directive)
			}

		default:
			if tok.Column > 1 {
				p.errorAtToken(tok, "unexpected indentation")
			} else {
				p.errorAtToken(tok, "expected directive, got %s %q", tok.Type, tok.String(p.source))
			}
			p.synchronize()
		}
	}

	return tree
}

// parseDated dispatches a date-first directive on its keyword; anything else
// after the date is a transaction header.
func (p *Parser) parseDated() ast.Directive {
	start := p.peek()

	date, err := p.parseDate()
	if err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	var directive ast.Directive
	switch p.peek().Type {
	case OPEN:
		directive, err = p.parseOpen(start, date)
	case CLOSE:
		directive, err = p.parseClose(start, date)
	case COMMODITY:
		directive, err = p.parseCommodity(start, date)
	case BALANCE:
		directive, err = p.parseBalance(start, date)
	case PRICE:
		directive, err = p.parsePrice(start, date)
	case DOCUMENT:
		directive, err = p.parseDocument(start, date)
	case NOTE:
		directive, err = p.parseNote(start, date)
	case EVENT:
		directive, err = p.parseEvent(start, date)
	case CUSTOM:
		directive, err = p.parseCustom(start, date)
	default:
		directive, err = p.parseTransaction(start, date)
	}

	if err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	return directive
}

// synchronize skips tokens until the next top-level line so one syntax error
// doesn't cascade into the rest of the file.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.peek().Type == NEWLINE {
			p.advance()
			// Resume only at an unindented line; indented continuation
			// lines belong to the failed directive.
			next := p.peek()
			if next.Type == EOF || next.Type == NEWLINE || p.indentOf(next) == "" {
				return
			}
			continue
		}
		p.advance()
	}
}

// Cursor helpers

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF sentinel
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

// check reports whether the next token has the given type.
func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

// match consumes the next token if it has the given type.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of the given type or returns an error.
func (p *Parser) expect(t TokenType, format string, args ...interface{}) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, p.errorf(tok, "%s, got %s %q", fmt.Sprintf(format, args...), tok.Type, tok.String(p.source))
	}
	return p.advance(), nil
}

// endOfLine consumes the trailing NEWLINE of a directive line, diagnosing
// any residue left on the line.
func (p *Parser) endOfLine() error {
	tok := p.peek()
	if tok.Type == EOF {
		return nil
	}
	if tok.Type != NEWLINE {
		return p.errorf(tok, "unexpected %s %q at end of line", tok.Type, tok.String(p.source))
	}
	p.advance()
	return nil
}

// spanFrom builds the byte span from the start token up to the last consumed
// token.
func (p *Parser) spanFrom(start Token) ast.Span {
	end := start.End
	if p.pos > 0 {
		prev := p.tokens[p.pos-1]
		if prev.Type != NEWLINE && prev.End > end {
			end = prev.End
		} else if prev.Type == NEWLINE && prev.Start > end {
			end = prev.Start
		}
	}
	return ast.Span{
		Filename: p.filename,
		Start:    start.Start,
		End:      end,
		Line:     start.Line,
		Column:   start.Column,
	}
}

// indentOf returns the whitespace prefix between the token's line start and
// the token itself, or "" when the token is unindented or not first on its
// line.
func (p *Parser) indentOf(tok Token) string {
	if tok.Column == 1 {
		return ""
	}
	start := tok.Start
	lineStart := start
	for lineStart > 0 && p.source[lineStart-1] != '\n' {
		lineStart--
	}
	for i := lineStart; i < start; i++ {
		ch := p.source[i]
		if ch != ' ' && ch != '\t' {
			return "" // token is not the first on its line
		}
	}
	return string(p.source[lineStart:start])
}

// Error helpers

func (p *Parser) errorf(tok Token, format string, args ...interface{}) *Error {
	return &Error{
		Pos: ast.Span{
			Filename: p.filename,
			Start:    tok.Start,
			End:      tok.End,
			Line:     tok.Line,
			Column:   tok.Column,
		},
		Message: fmt.Sprintf(format, args...),
	}
}

// errorAtToken records a diagnostic at the given token.
func (p *Parser) errorAtToken(tok Token, format string, args ...interface{}) {
	p.errors = append(p.errors, p.errorf(tok, format, args...))
}

func (p *Parser) recordError(err error) {
	if perr, ok := err.(*Error); ok {
		p.errors = append(p.errors, perr)
		return
	}
	p.errors = append(p.errors, p.errorf(p.peek(), "%v", err))
}
