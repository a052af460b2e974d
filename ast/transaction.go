package ast

// Transaction records a financial transaction with a date, flag, optional
// payee and narration, tag and link sets, and a list of postings. The flag
// indicates status: '*' for completed (the default) or '!' for pending. The
// resolved postings of every commodity must net to zero within tolerance;
// at most one posting may omit its amount to be inferred.
//
// Example:
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine with wine"
//	  Liabilities:CreditCard:CapitalOne -37.45 USD
//	  Expenses:Food:Restaurant
type Transaction struct {
	Pos       Span
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Tags      []Tag
	Links     []Link

	withMetadata

	Postings []*Posting
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Span    { return t.Pos }
func (t *Transaction) date() *Date       { return t.Date }
func (t *Transaction) Directive() string { return "transaction" }

// Accounts returns the distinct accounts referenced by the postings,
// in posting order.
func (t *Transaction) Accounts() []Account {
	seen := make(map[Account]bool, len(t.Postings))
	accounts := make([]Account, 0, len(t.Postings))
	for _, p := range t.Postings {
		if !seen[p.Account] {
			accounts = append(accounts, p.Account)
			seen[p.Account] = true
		}
	}
	return accounts
}

// Posting represents a single leg of a transaction: an account plus optional
// unit amount, cost, and price. A posting without a unit amount is elided and
// filled by the evaluator so each commodity nets to zero.
//
// Example postings:
//
//	Assets:Brokerage    10 SPY {518.73 USD}   ; acquisition with cost basis
//	Assets:Cash        200 EUR @ 1.35 USD     ; conversion with unit price
//	Expenses:Groceries  45.60 USD             ; plain posting
//	Assets:Checking                           ; elided, inferred
type Posting struct {
	Pos      Span
	Flag     string
	Account  Account
	Amount   *Amount // nil when elided
	Cost     *Cost
	Price    *Amount
	Total    bool // true for @@ (total price), false for @ (per unit)
	Inferred bool // true if Amount was filled by the evaluator

	withMetadata
}

// Elided reports whether the posting omitted its unit amount.
func (p *Posting) Elided() bool { return p.Amount == nil && !p.Inferred }

// Cost is the acquisition cost clause of a posting, written
// {number commodity[, date]}. The date identifies the lot; when omitted the
// transaction date is used.
type Cost struct {
	Amount *Amount
	Date   *Date
}
