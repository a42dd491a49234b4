package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexer_Tokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty string",
			input: "",
			expected: []Token{
				{Type: TokenTypeEOF, Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "plain text",
			input: "Hello, world!",
			expected: []Token{
				{Type: TokenTypeText, Value: "Hello, world!", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 13, Line: 1, Column: 14}},
			},
		},
		{
			name:  "single interpolation",
			input: "Hey #{name}!",
			expected: []Token{
				{Type: TokenTypeText, Value: "Hey ", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeExpr, Value: "name", Position: Position{Offset: 4, Line: 1, Column: 5}},
				{Type: TokenTypeText, Value: "!", Position: Position{Offset: 11, Line: 1, Column: 12}},
				{Type: TokenTypeEOF, Position: Position{Offset: 12, Line: 1, Column: 13}},
			},
		},
		{
			name:  "adjacent interpolations",
			input: "#{a}#{b}",
			expected: []Token{
				{Type: TokenTypeExpr, Value: "a", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeExpr, Value: "b", Position: Position{Offset: 4, Line: 1, Column: 5}},
				{Type: TokenTypeEOF, Position: Position{Offset: 8, Line: 1, Column: 9}},
			},
		},
		{
			name:  "nested braces",
			input: "#{ {\"a\": 1}.a }",
			expected: []Token{
				{Type: TokenTypeExpr, Value: "{\"a\": 1}.a", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 15, Line: 1, Column: 16}},
			},
		},
		{
			name:  "brace inside string literal",
			input: `#{"}" + x}`,
			expected: []Token{
				{Type: TokenTypeExpr, Value: `"}" + x`, Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 10, Line: 1, Column: 11}},
			},
		},
		{
			name:  "escaped open delimiter",
			input: `a \#{b} c`,
			expected: []Token{
				{Type: TokenTypeText, Value: "a #{b} c", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 9, Line: 1, Column: 10}},
			},
		},
		{
			name:  "multiline positions",
			input: "one\ntwo #{x}",
			expected: []Token{
				{Type: TokenTypeText, Value: "one\ntwo ", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeExpr, Value: "x", Position: Position{Offset: 8, Line: 2, Column: 5}},
				{Type: TokenTypeEOF, Position: Position{Offset: 12, Line: 2, Column: 9}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input, zap.NewNop()).Tokenize()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestLexer_Tokenize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
	}{
		{name: "unterminated", input: "Hey #{name", message: ErrMsgUnterminatedExpr, line: 1},
		{name: "unterminated on later line", input: "a\nb\n#{x", message: ErrMsgUnterminatedExpr, line: 3},
		{name: "unterminated string", input: `#{"abc}`, message: ErrMsgUnterminatedString, line: 1},
		{name: "empty expression", input: "#{  }", message: ErrMsgEmptyExpr, line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input, nil).Tokenize()
			require.Error(t, err)

			var lexErr *LexError
			require.True(t, errors.As(err, &lexErr))
			assert.Equal(t, tt.message, lexErr.Message)
			assert.Equal(t, tt.line, lexErr.Position.Line)
		})
	}
}

func TestToken_String(t *testing.T) {
	tok := Token{Type: TokenTypeExpr, Value: "x", Position: Position{Line: 2, Column: 3}}
	assert.Equal(t, `Token{EXPR: "x" @ line 2, column 3}`, tok.String())

	eof := Token{Type: TokenTypeEOF, Position: Position{Line: 1, Column: 1}}
	assert.Equal(t, "Token{EOF @ line 1, column 1}", eof.String())
	assert.True(t, eof.IsEOF())
}
