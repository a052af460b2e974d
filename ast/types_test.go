package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		precision DatePrecision
		sortKey   string
	}{
		{"day", "2023-01-02", PrecisionDay, "2023-01-02 00:00:00"},
		{"minute", "2023-01-02 13:45", PrecisionMinute, "2023-01-02 13:45:00"},
		{"second", "2023-01-02 13:45:59", PrecisionSecond, "2023-01-02 13:45:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.precision, d.Precision)
			assert.Equal(t, tt.sortKey, d.SortKey())
			assert.Equal(t, tt.input, d.String())
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"", "2023-13-01", "01-02-2023", "2023-01-02T10:00"} {
		_, err := ParseDate(input)
		assert.Error(t, err, "expected error for %q", input)
	}
}

func TestParseAccount(t *testing.T) {
	for _, valid := range []string{
		"Assets:Cash",
		"Liabilities:CreditCard:CapitalOne",
		"Equity:Opening-Balances",
		"Income:Acme:Salary",
		"Expenses:Home:Rent2",
	} {
		account, err := ParseAccount(valid)
		assert.NoError(t, err)
		assert.Equal(t, valid, string(account))
	}

	for _, invalid := range []string{
		"Assets",
		"Asset:Cash",
		"Funds:Cash",
		"Assets:",
	} {
		_, err := ParseAccount(invalid)
		assert.Error(t, err, "expected error for %q", invalid)
	}
}

func TestAccountRoot(t *testing.T) {
	assert.Equal(t, "Assets", Account("Assets:Bank:Checking").Root())
	assert.Equal(t, []string{"Assets", "Bank", "Checking"}, Account("Assets:Bank:Checking").Segments())
}

func TestSortDirectivesStable(t *testing.T) {
	open := &Open{Date: mustDate(t, "1970-01-01"), Account: "Assets:Cash"}
	txn := &Transaction{Date: mustDate(t, "2023-01-05"), Narration: "coffee"}
	balance := &Balance{Date: mustDate(t, "2023-01-05"), Account: "Assets:Cash"}
	late := &Transaction{Date: mustDate(t, "2023-02-01"), Narration: "rent"}

	tree := &AST{Directives: Directives{late, open, txn, balance}}
	SortDirectives(tree)

	assert.Equal(t, Directives{open, txn, balance, late}, tree.Directives)
}

func TestMetadataLookup(t *testing.T) {
	c := &Commodity{Name: "USD"}
	c.AddMetadata(&Metadata{Key: "precision", Value: MetaString("2")})
	c.AddMetadata(&Metadata{Key: "alias", Value: MetaAccount("Assets:Cash")})

	assert.True(t, c.HasMetadata())
	assert.Equal(t, "2", c.Meta("precision"))
	assert.Equal(t, "Assets:Cash", c.Meta("alias"))
	assert.Equal(t, "", c.Meta("missing"))
}

func mustDate(t *testing.T, value string) *Date {
	t.Helper()
	d, err := ParseDate(value)
	assert.NoError(t, err)
	return d
}
