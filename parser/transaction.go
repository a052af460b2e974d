package parser

import "github.com/KushNee/zhang/ast"

// Transaction parsing - the most complex directive type.
//
// A transaction is a header line followed by indented posting and metadata
// lines. The whitespace prefix of the first indented line becomes the
// transaction's indent cookie; every further line must start with the
// identical prefix. A blank line or a dedent terminates the transaction.

// parseTransaction parses a transaction:
// DATE [txn] [FLAG] [PAYEE] [NARRATION] [TAG|LINK]*
//
//	POSTING*
func (p *Parser) parseTransaction(start Token, date *ast.Date) (*ast.Transaction, error) {
	txn := &ast.Transaction{
		Date: date,
		Flag: "*",
	}

	// Optional 'txn' keyword and flag. Valid forms:
	//   DATE txn * "narration"
	//   DATE * "narration"
	//   DATE ! "narration"
	//   DATE "narration"
	hadKeyword := p.match(TXN)
	switch {
	case p.match(ASTERISK):
		txn.Flag = "*"
	case p.match(EXCLAIM):
		txn.Flag = "!"
	default:
		if !hadKeyword && !p.check(STRING) && !p.check(TAG) && !p.check(LINK) && !p.check(NEWLINE) {
			tok := p.peek()
			return nil, p.errorf(tok, "expected transaction flag, payee or narration, got %s %q", tok.Type, tok.String(p.source))
		}
	}

	// One string is the narration; two are payee then narration.
	if p.check(STRING) {
		first, err := p.parseString()
		if err != nil {
			return nil, err
		}

		if p.check(STRING) {
			second, err := p.parseString()
			if err != nil {
				return nil, err
			}
			txn.Payee = first
			txn.Narration = second
		} else {
			txn.Narration = first
		}
	}

	// Tags and links can be intermixed
	for p.check(TAG) || p.check(LINK) {
		tok := p.advance()
		text := p.interner.InternBytes(tok.Bytes(p.source)[1:])
		if tok.Type == TAG {
			txn.Tags = append(txn.Tags, ast.Tag(text))
		} else {
			txn.Links = append(txn.Links, ast.Link(text))
		}
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	if err := p.parseTransactionBody(txn); err != nil {
		return nil, err
	}

	txn.Pos = p.spanFrom(start)
	return txn, nil
}

// parseTransactionBody parses the indented posting and metadata lines.
// Metadata before the first posting attaches to the transaction; afterwards
// it attaches to the posting above it.
func (p *Parser) parseTransactionBody(txn *ast.Transaction) error {
	cookie := ""

	for !p.isAtEnd() {
		tok := p.peek()
		if tok.Type == NEWLINE {
			break // blank line terminates the transaction
		}

		prefix := p.indentOf(tok)
		if prefix == "" {
			break // dedent to top level
		}
		if cookie == "" {
			cookie = prefix
		} else if prefix != cookie {
			if len(prefix) > len(cookie) && prefix[:len(cookie)] == cookie {
				// Deeper indentation inside a transaction is a mistake the
				// user should hear about; skip just this line.
				p.errorAtToken(tok, "inconsistent indentation inside transaction")
				p.skipLine()
				continue
			}
			break // dedent terminates the transaction
		}

		// Metadata line: IDENT ':' …
		if tok.Type == IDENT && p.peekAhead(1).Type == COLON {
			meta, err := p.parseMetadataLine()
			if err != nil {
				p.recordError(err)
				p.skipLine()
				continue
			}
			if n := len(txn.Postings); n > 0 {
				txn.Postings[n-1].AddMetadata(meta)
			} else {
				txn.AddMetadata(meta)
			}
			continue
		}

		posting, err := p.parsePosting()
		if err != nil {
			p.recordError(err)
			p.skipLine()
			continue
		}
		txn.Postings = append(txn.Postings, posting)
	}

	return nil
}

// parsePosting parses a single posting line:
// [FLAG] ACCOUNT [AMOUNT] [COST] [PRICE]
func (p *Parser) parsePosting() (*ast.Posting, error) {
	start := p.peek()
	posting := &ast.Posting{}

	if p.match(ASTERISK) {
		posting.Flag = "*"
	} else if p.match(EXCLAIM) {
		posting.Flag = "!"
	}

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	posting.Account = account

	// Optional unit amount; a posting without one is elided and will be
	// inferred by the evaluator.
	if p.check(NUMBER) {
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Amount = amount
	}

	// Optional cost: {NUMBER COMMODITY[, DATE]}
	if p.check(LBRACE) {
		cost, err := p.parseCost()
		if err != nil {
			return nil, err
		}
		posting.Cost = cost
	}

	// Optional price: @ AMOUNT (per unit) or @@ AMOUNT (total)
	if p.match(ATAT) {
		posting.Total = true
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Price = amount
	} else if p.match(AT) {
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Price = amount
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	posting.Pos = p.spanFrom(start)
	return posting, nil
}

// parseCost parses a cost clause: '{' AMOUNT [',' DATE] '}'
func (p *Parser) parseCost() (*ast.Cost, error) {
	if _, err := p.expect(LBRACE, "expected '{'"); err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	cost := &ast.Cost{Amount: amount}

	if p.match(COMMA) {
		date, err := p.parseDate()
		if err != nil {
			return nil, err
		}
		cost.Date = date
	}

	if _, err := p.expect(RBRACE, "expected '}'"); err != nil {
		return nil, err
	}

	return cost, nil
}
