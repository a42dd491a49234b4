package internal

import (
	"fmt"
)

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is a literal run or an embedded expression
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-file token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// LexError reports a malformed interpolation at a position
type LexError struct {
	Message  string
	Position Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Position)
}
