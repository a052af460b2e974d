package ast

// Commodity declares a commodity that can be used in the ledger. Metadata
// attributes control display precision and rounding:
//
//	1970-01-01 commodity CNY
//	  precision: "2"
//	  rounding: "round_down"
type Commodity struct {
	Pos  Span
	Date *Date
	Name string

	withMetadata
}

var _ Directive = &Commodity{}

func (c *Commodity) Position() Span    { return c.Pos }
func (c *Commodity) date() *Date       { return c.Date }
func (c *Commodity) Directive() string { return "commodity" }

// Open legalizes an account from its date, optionally constraining which
// commodities the account may hold.
//
// Example:
//
//	2014-05-01 open Assets:BofA:Checking USD
//	2014-05-01 open Assets:Brokerage USD, EUR
type Open struct {
	Pos         Span
	Date        *Date
	Account     Account
	Commodities []string

	withMetadata
}

var _ Directive = &Open{}

func (o *Open) Position() Span    { return o.Pos }
func (o *Open) date() *Date       { return o.Date }
func (o *Open) Directive() string { return "open" }

// Close forbids postings to an account after its date.
//
// Example:
//
//	2015-09-23 close Assets:BofA:Checking
type Close struct {
	Pos     Span
	Date    *Date
	Account Account

	withMetadata
}

var _ Directive = &Close{}

func (c *Close) Position() Span    { return c.Pos }
func (c *Close) date() *Date       { return c.Date }
func (c *Close) Directive() string { return "close" }

// Balance asserts that an account's running total in a commodity equals the
// stated amount just before the assertion's instant. When a pad account is
// named, a compensating transaction is generated instead of an error:
//
//	2023-01-05 balance Assets:Bank 100.00 USD with pad Equity:Opening
type Balance struct {
	Pos     Span
	Date    *Date
	Account Account
	Amount  *Amount
	Pad     Account // empty when no "with pad" clause

	withMetadata
}

var _ Directive = &Balance{}

func (b *Balance) Position() Span    { return b.Pos }
func (b *Balance) date() *Date       { return b.Date }
func (b *Balance) Directive() string { return "balance" }

// HasPad reports whether the assertion carries a "with pad" clause.
func (b *Balance) HasPad() bool { return b.Pad != "" }

// Note attaches a dated comment to an account.
//
// Example:
//
//	2014-07-09 note Assets:BofA:Checking "Called bank about pending deposit"
type Note struct {
	Pos         Span
	Date        *Date
	Account     Account
	Description string

	withMetadata
}

var _ Directive = &Note{}

func (n *Note) Position() Span    { return n.Pos }
func (n *Note) date() *Date       { return n.Date }
func (n *Note) Directive() string { return "note" }

// Document associates an external file (receipt, invoice, statement) with an
// account at a specific date. The path is relative to the ledger root.
type Document struct {
	Pos     Span
	Date    *Date
	Account Account
	Path    string

	withMetadata
}

var _ Directive = &Document{}

func (d *Document) Position() Span    { return d.Pos }
func (d *Document) date() *Date       { return d.Date }
func (d *Document) Directive() string { return "document" }

// Price declares the rate of one commodity in terms of another at a date.
//
// Example:
//
//	2023-01-01 price USD 0.90 EUR
type Price struct {
	Pos    Span
	Date   *Date
	Base   string
	Amount *Amount // rate and quote commodity

	withMetadata
}

var _ Directive = &Price{}

func (p *Price) Position() Span    { return p.Pos }
func (p *Price) date() *Date       { return p.Date }
func (p *Price) Directive() string { return "price" }

// Event records a named value at a date (location, employer, …).
type Event struct {
	Pos   Span
	Date  *Date
	Name  string
	Value string

	withMetadata
}

var _ Directive = &Event{}

func (e *Event) Position() Span    { return e.Pos }
func (e *Event) date() *Date       { return e.Date }
func (e *Event) Directive() string { return "event" }

// StringOrAccount is a custom-directive argument: a string or an account.
type StringOrAccount struct {
	String  *string
	Account *Account
}

func (s *StringOrAccount) Value() string {
	switch {
	case s == nil:
		return ""
	case s.Account != nil:
		return string(*s.Account)
	case s.String != nil:
		return *s.String
	default:
		return ""
	}
}

// Custom is an extension directive with arbitrary arguments after a type name.
//
// Example:
//
//	2014-07-09 custom "budget" Expenses:Food "monthly" "450.00"
type Custom struct {
	Pos    Span
	Date   *Date
	Type   string
	Values []*StringOrAccount

	withMetadata
}

var _ Directive = &Custom{}

func (c *Custom) Position() Span    { return c.Pos }
func (c *Custom) date() *Date       { return c.Date }
func (c *Custom) Directive() string { return "custom" }

// Option sets a configuration parameter affecting how the ledger is
// processed or displayed.
//
// Example:
//
//	option "title" "Personal Ledger"
//	option "operating_currency" "CNY"
type Option struct {
	Pos   Span
	Key   string
	Value string
}

func (o *Option) Position() Span { return o.Pos }

// Include splices directives from every file matched by a glob pattern,
// resolved relative to the including file's directory.
//
// Example:
//
//	include "accounts.zhang"
//	include "txns/2023-*.zhang"
type Include struct {
	Pos  Span
	Path string
}

func (i *Include) Position() Span { return i.Pos }

// Plugin loads a processing extension by name with optional arguments.
// Plugins are recorded but not executed by this implementation.
type Plugin struct {
	Pos  Span
	Name string
	Args []string
}

func (p *Plugin) Position() Span { return p.Pos }
