package parser

import "github.com/KushNee/zhang/ast"

// Directive parsers for all non-transaction directives.
// These are simple line-shaped parsers with deterministic structure.

// parseOpen parses: DATE open ACCOUNT [COMMODITY[, COMMODITY]*]
func (p *Parser) parseOpen(start Token, date *ast.Date) (*ast.Open, error) {
	p.advance() // 'open'

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	open := &ast.Open{
		Date:    date,
		Account: account,
	}

	// Optional commodity constraints
	if p.check(IDENT) {
		commodity, err := p.parseCommodityName()
		if err != nil {
			return nil, err
		}
		open.Commodities = append(open.Commodities, commodity)

		for p.match(COMMA) {
			commodity, err := p.parseCommodityName()
			if err != nil {
				return nil, err
			}
			open.Commodities = append(open.Commodities, commodity)
		}
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	open.Metadata = p.parseMetadataBlock()
	open.Pos = p.spanFrom(start)

	return open, nil
}

// parseClose parses: DATE close ACCOUNT
func (p *Parser) parseClose(start Token, date *ast.Date) (*ast.Close, error) {
	p.advance() // 'close'

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	close := &ast.Close{
		Date:    date,
		Account: account,
	}
	close.Metadata = p.parseMetadataBlock()
	close.Pos = p.spanFrom(start)

	return close, nil
}

// parseCommodity parses: DATE commodity NAME
func (p *Parser) parseCommodity(start Token, date *ast.Date) (*ast.Commodity, error) {
	p.advance() // 'commodity'

	name, err := p.parseCommodityName()
	if err != nil {
		return nil, err
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	commodity := &ast.Commodity{
		Date: date,
		Name: name,
	}
	commodity.Metadata = p.parseMetadataBlock()
	commodity.Pos = p.spanFrom(start)

	return commodity, nil
}

// parseBalance parses: DATE balance ACCOUNT AMOUNT [with pad ACCOUNT]
func (p *Parser) parseBalance(start Token, date *ast.Date) (*ast.Balance, error) {
	p.advance() // 'balance'

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	balance := &ast.Balance{
		Date:    date,
		Account: account,
		Amount:  amount,
	}

	if p.match(WITH) {
		if _, err := p.expect(PAD, "expected 'pad' after 'with'"); err != nil {
			return nil, err
		}
		pad, err := p.parseAccount()
		if err != nil {
			return nil, err
		}
		balance.Pad = pad
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	balance.Metadata = p.parseMetadataBlock()
	balance.Pos = p.spanFrom(start)

	return balance, nil
}

// parsePrice parses: DATE price BASE AMOUNT
func (p *Parser) parsePrice(start Token, date *ast.Date) (*ast.Price, error) {
	p.advance() // 'price'

	base, err := p.parseCommodityName()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	price := &ast.Price{
		Date:   date,
		Base:   base,
		Amount: amount,
	}
	price.Metadata = p.parseMetadataBlock()
	price.Pos = p.spanFrom(start)

	return price, nil
}

// parseDocument parses: DATE document ACCOUNT STRING
func (p *Parser) parseDocument(start Token, date *ast.Date) (*ast.Document, error) {
	p.advance() // 'document'

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	path, err := p.parseString()
	if err != nil {
		return nil, err
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	doc := &ast.Document{
		Date:    date,
		Account: account,
		Path:    path,
	}
	doc.Metadata = p.parseMetadataBlock()
	doc.Pos = p.spanFrom(start)

	return doc, nil
}

// parseNote parses: DATE note ACCOUNT STRING
func (p *Parser) parseNote(start Token, date *ast.Date) (*ast.Note, error) {
	p.advance() // 'note'

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	description, err := p.parseString()
	if err != nil {
		return nil, err
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	note := &ast.Note{
		Date:        date,
		Account:     account,
		Description: description,
	}
	note.Metadata = p.parseMetadataBlock()
	note.Pos = p.spanFrom(start)

	return note, nil
}

// parseEvent parses: DATE event STRING STRING
func (p *Parser) parseEvent(start Token, date *ast.Date) (*ast.Event, error) {
	p.advance() // 'event'

	name, err := p.parseStringish()
	if err != nil {
		return nil, err
	}

	value, err := p.parseStringish()
	if err != nil {
		return nil, err
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}

	event := &ast.Event{
		Date:  date,
		Name:  name,
		Value: value,
	}
	event.Metadata = p.parseMetadataBlock()
	event.Pos = p.spanFrom(start)

	return event, nil
}

// parseCustom parses: DATE custom TYPE (STRING | ACCOUNT | IDENT | NUMBER)*
func (p *Parser) parseCustom(start Token, date *ast.Date) (*ast.Custom, error) {
	p.advance() // 'custom'

	customType, err := p.parseStringish()
	if err != nil {
		return nil, err
	}

	custom := &ast.Custom{
		Date: date,
		Type: customType,
	}

	for !p.isAtEnd() && !p.check(NEWLINE) {
		if p.check(ACCOUNT) {
			account, err := p.parseAccount()
			if err != nil {
				return nil, err
			}
			custom.Values = append(custom.Values, &ast.StringOrAccount{Account: &account})
			continue
		}

		value, err := p.parseStringish()
		if err != nil {
			return nil, err
		}
		custom.Values = append(custom.Values, &ast.StringOrAccount{String: &value})
	}

	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	custom.Metadata = p.parseMetadataBlock()
	custom.Pos = p.spanFrom(start)

	return custom, nil
}

// parseOption parses: option STRING STRING
func (p *Parser) parseOption() *ast.Option {
	start := p.advance() // 'option'

	key, err := p.parseStringish()
	if err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	value, err := p.parseStringish()
	if err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	if err := p.endOfLine(); err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	return &ast.Option{Pos: p.spanFrom(start), Key: key, Value: value}
}

// parseInclude parses: include STRING
// The argument is a glob pattern resolved by the loader relative to the
// including file's directory.
func (p *Parser) parseInclude() *ast.Include {
	start := p.advance() // 'include'

	path, err := p.parseString()
	if err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	if err := p.endOfLine(); err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	return &ast.Include{Pos: p.spanFrom(start), Path: path}
}

// parsePlugin parses: plugin STRING STRING*
func (p *Parser) parsePlugin() *ast.Plugin {
	start := p.advance() // 'plugin'

	name, err := p.parseStringish()
	if err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	plugin := &ast.Plugin{Name: name}

	for !p.isAtEnd() && !p.check(NEWLINE) {
		arg, err := p.parseStringish()
		if err != nil {
			p.recordError(err)
			p.synchronize()
			return nil
		}
		plugin.Args = append(plugin.Args, arg)
	}

	if err := p.endOfLine(); err != nil {
		p.recordError(err)
		p.synchronize()
		return nil
	}

	plugin.Pos = p.spanFrom(start)
	return plugin
}
