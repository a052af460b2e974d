package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func scanTypes(t *testing.T, source string) []TokenType {
	t.Helper()
	tokens := NewLexer([]byte(source), "test.zhang").ScanAll()
	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func TestLexerDates(t *testing.T) {
	tests := []struct {
		name   string
		source string
		text   string
	}{
		{"day", "2023-01-02", "2023-01-02"},
		{"minute", "2023-01-02 13:45", "2023-01-02 13:45"},
		{"second", "2023-01-02 13:45:59", "2023-01-02 13:45:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := NewLexer([]byte(tt.source), "test.zhang").ScanAll()
			assert.Equal(t, DATE, tokens[0].Type)
			assert.Equal(t, tt.text, tokens[0].String([]byte(tt.source)))
		})
	}
}

func TestLexerDateThenAmountIsNotTime(t *testing.T) {
	// A number after the date that is not HH:MM must not be folded into the date.
	source := "2023-01-02 12.50 USD\n"
	tokens := NewLexer([]byte(source), "test.zhang").ScanAll()
	assert.Equal(t, "2023-01-02", tokens[0].String([]byte(source)))
	assert.Equal(t, NUMBER, tokens[1].Type)
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		source string
		text   string
	}{
		{"3.50", "3.50"},
		{"-3.50", "-3.50"},
		{"100", "100"},
		{"1.5e3", "1.5e3"},
		{"2E-2", "2E-2"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := NewLexer([]byte(tt.source), "test.zhang").ScanAll()
			assert.Equal(t, NUMBER, tokens[0].Type)
			assert.Equal(t, tt.text, tokens[0].String([]byte(tt.source)))
		})
	}
}

func TestLexerAccountsAndIdents(t *testing.T) {
	source := "Assets:Bank:Checking USD open balance with pad"
	types := scanTypes(t, source)
	assert.Equal(t, []TokenType{ACCOUNT, IDENT, OPEN, BALANCE, WITH, PAD, EOF}, types)
}

func TestLexerMetadataColonStaysSeparate(t *testing.T) {
	// "precision:" must lex as IDENT COLON, not swallow the colon.
	source := "precision: 2"
	types := scanTypes(t, source)
	assert.Equal(t, []TokenType{IDENT, COLON, NUMBER, EOF}, types)
}

func TestLexerComments(t *testing.T) {
	tests := []struct {
		name   string
		source string
		types  []TokenType
	}{
		{"semicolon", "; a comment\noption \"a\" \"b\"", []TokenType{NEWLINE, OPTION, STRING, STRING, EOF}},
		{"slashes", "// a comment\n", []TokenType{NEWLINE, EOF}},
		{"star at column zero", "* org header\n", []TokenType{NEWLINE, EOF}},
		{"hash at column zero", "# heading\n", []TokenType{NEWLINE, EOF}},
		{"inline semicolon", "option \"a\" \"b\" ; trailing\n", []TokenType{OPTION, STRING, STRING, NEWLINE, EOF}},
		{"inline slashes", "option \"a\" \"b\" // trailing\n", []TokenType{OPTION, STRING, STRING, NEWLINE, EOF}},
		{"star mid line is a flag", "2023-01-02 *\n", []TokenType{DATE, ASTERISK, NEWLINE, EOF}},
		{"hash mid line is a tag", "2023-01-02 * #trip\n", []TokenType{DATE, ASTERISK, TAG, NEWLINE, EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.types, scanTypes(t, tt.source))
		})
	}
}

func TestLexerSymbols(t *testing.T) {
	source := "@ @@ { } , : * !"
	types := scanTypes(t, source)
	assert.Equal(t, []TokenType{AT, ATAT, LBRACE, RBRACE, COMMA, COLON, ASTERISK, EXCLAIM, EOF}, types)
}

func TestLexerStringEscapes(t *testing.T) {
	source := `"say \"hi\" 你"`
	tokens := NewLexer([]byte(source), "test.zhang").ScanAll()
	assert.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, source, tokens[0].String([]byte(source)))
}

func TestLexerBOM(t *testing.T) {
	source := append([]byte{0xEF, 0xBB, 0xBF}, []byte("option \"title\" \"x\"")...)
	tokens := NewLexer(source, "test.zhang").ScanAll()
	assert.Equal(t, OPTION, tokens[0].Type)
}

func TestLexerNewlinesAreTokens(t *testing.T) {
	types := scanTypes(t, "USD\n\nUSD")
	assert.Equal(t, []TokenType{IDENT, NEWLINE, NEWLINE, IDENT, EOF}, types)
}
