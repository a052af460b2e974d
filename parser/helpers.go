package parser

import (
	"strings"

	"github.com/KushNee/zhang/ast"
)

// Helper parsing methods shared across directive parsers.

// parseDate parses a DATE token and converts it to *ast.Date.
func (p *Parser) parseDate() (*ast.Date, error) {
	tok, err := p.expect(DATE, "expected date")
	if err != nil {
		return nil, err
	}

	date, derr := ast.ParseDate(tok.String(p.source))
	if derr != nil {
		return nil, p.errorf(tok, "%v", derr)
	}

	return date, nil
}

// parseAccount parses an ACCOUNT token and converts it to ast.Account.
// The account name is interned to save memory.
func (p *Parser) parseAccount() (ast.Account, error) {
	tok, err := p.expect(ACCOUNT, "expected account")
	if err != nil {
		return "", err
	}

	account, aerr := ast.ParseAccount(p.interner.InternBytes(tok.Bytes(p.source)))
	if aerr != nil {
		return "", p.errorf(tok, "%v", aerr)
	}

	return account, nil
}

// parseAmount parses an amount: NUMBER COMMODITY.
// The number's source text is kept verbatim to preserve its scale.
func (p *Parser) parseAmount() (*ast.Amount, error) {
	numTok, err := p.expect(NUMBER, "expected number")
	if err != nil {
		return nil, err
	}

	commodity, err := p.parseCommodityName()
	if err != nil {
		return nil, err
	}

	return &ast.Amount{
		Value:     numTok.String(p.source),
		Commodity: commodity,
	}, nil
}

// parseCommodityName parses a commodity identifier (USD, BTC, …).
func (p *Parser) parseCommodityName() (string, error) {
	tok, err := p.expect(IDENT, "expected commodity")
	if err != nil {
		return "", err
	}
	return p.interner.InternBytes(tok.Bytes(p.source)), nil
}

// parseString parses a quoted STRING token and decodes its escapes.
func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(STRING, "expected string")
	if err != nil {
		return "", err
	}

	value, uerr := unquote(tok.String(p.source))
	if uerr != nil {
		return "", p.errorf(tok, "%v", uerr)
	}

	return p.interner.Intern(value), nil
}

// parseStringish accepts a quoted string or a bare identifier; several
// directives (event, option, plugin, custom) allow either form.
func (p *Parser) parseStringish() (string, error) {
	switch p.peek().Type {
	case STRING:
		return p.parseString()
	case IDENT, NUMBER:
		tok := p.advance()
		return p.interner.InternBytes(tok.Bytes(p.source)), nil
	default:
		tok := p.peek()
		return "", p.errorf(tok, "expected string, got %s %q", tok.Type, tok.String(p.source))
	}
}

// parseMetadataBlock parses consecutive indented "key: value" lines following
// a directive's header line. The first indented line fixes the whitespace
// prefix; a blank line, a dedent, or a different prefix ends the block.
func (p *Parser) parseMetadataBlock() []*ast.Metadata {
	var meta []*ast.Metadata
	cookie := ""

	for !p.isAtEnd() {
		tok := p.peek()
		if tok.Type == NEWLINE {
			break // blank line terminates the directive
		}

		prefix := p.indentOf(tok)
		if prefix == "" {
			break
		}
		if cookie == "" {
			cookie = prefix
		} else if prefix != cookie {
			break
		}

		if tok.Type != IDENT || p.peekAhead(1).Type != COLON {
			break
		}

		m, err := p.parseMetadataLine()
		if err != nil {
			p.recordError(err)
			p.skipLine()
			continue
		}
		meta = append(meta, m)
	}

	return meta
}

// parseMetadataLine parses one "key: value" line including its newline.
// Values are either a single account reference or free text to end of line.
func (p *Parser) parseMetadataLine() (*ast.Metadata, error) {
	keyTok, err := p.expect(IDENT, "expected metadata key")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "expected ':' after metadata key"); err != nil {
		return nil, err
	}

	key := p.interner.InternBytes(keyTok.Bytes(p.source))

	var value *ast.MetaValue
	switch p.peek().Type {
	case ACCOUNT:
		account, err := p.parseAccount()
		if err != nil {
			return nil, err
		}
		value = ast.MetaAccount(account)

	case STRING:
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		value = ast.MetaString(s)

	case NEWLINE, EOF:
		value = ast.MetaString("")

	default:
		// Free text: everything up to end of line, verbatim
		first := p.advance()
		last := first
		for !p.isAtEnd() && p.peek().Type != NEWLINE {
			last = p.advance()
		}
		raw := strings.TrimSpace(string(p.source[first.Start:last.End]))
		value = ast.MetaString(p.interner.Intern(raw))
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	return &ast.Metadata{Key: key, Value: value}, nil
}

// skipLine advances past the current line including its newline.
func (p *Parser) skipLine() {
	for !p.isAtEnd() {
		if p.advance().Type == NEWLINE {
			return
		}
	}
}
