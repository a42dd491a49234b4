package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Lexer splits a string template into literal text and #{...} expressions.
// Braces nest inside an expression and quoted strings may contain braces.
type Lexer struct {
	source string
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	logger *zap.Logger
}

// NewLexer creates a lexer for source
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Tokenize processes the source and returns a token stream ending in EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	l.logger.Debug(LogMsgTokenizerStart)
	var tokens []Token

	for !l.isAtEnd() {
		if l.matchStr(StrOpenDelim) {
			tok, err := l.scanExpr()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			continue
		}

		tok := l.scanText()
		if tok.Value != "" {
			tokens = append(tokens, tok)
		}
	}

	tokens = append(tokens, Token{Type: TokenTypeEOF, Position: l.currentPosition()})
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

// scanText consumes literal text up to the next unescaped open delimiter
func (l *Lexer) scanText() Token {
	startPos := l.currentPosition()
	var sb strings.Builder

	for !l.isAtEnd() {
		if l.matchStr(StrEscapedOpen) {
			l.advance() // drop the backslash
			sb.WriteString(StrOpenDelim)
			l.advanceN(len(StrOpenDelim))
			continue
		}
		if l.matchStr(StrOpenDelim) {
			break
		}
		sb.WriteByte(l.advance())
	}

	return Token{Type: TokenTypeText, Value: sb.String(), Position: startPos}
}

// scanExpr consumes #{ ... } and returns the expression between the braces
func (l *Lexer) scanExpr() (Token, error) {
	startPos := l.currentPosition()
	l.advanceN(len(StrOpenDelim))
	exprStart := l.pos
	depth := 1

	for !l.isAtEnd() {
		c := l.peek()
		switch c {
		case CharDoubleQuote, CharSingleQuote, CharBacktick:
			if err := l.skipQuoted(c); err != nil {
				return Token{}, err
			}
			continue
		case CharOpenBrace:
			depth++
		case CharCloseBrace:
			depth--
			if depth == 0 {
				value := strings.TrimSpace(l.source[exprStart:l.pos])
				l.advanceN(len(StrCloseDelim))
				if value == "" {
					return Token{}, &LexError{Message: ErrMsgEmptyExpr, Position: startPos}
				}
				return Token{Type: TokenTypeExpr, Value: value, Position: startPos}, nil
			}
		}
		l.advance()
	}

	return Token{}, &LexError{Message: ErrMsgUnterminatedExpr, Position: startPos}
}

// skipQuoted consumes a quoted literal including its delimiters
func (l *Lexer) skipQuoted(quote byte) error {
	startPos := l.currentPosition()
	l.advance()
	for !l.isAtEnd() {
		c := l.advance()
		if c == CharBackslash && quote != CharBacktick && !l.isAtEnd() {
			l.advance()
			continue
		}
		if c == quote {
			return nil
		}
	}
	return &LexError{Message: ErrMsgUnterminatedString, Position: startPos}
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) peek() byte {
	return l.source[l.pos]
}

func (l *Lexer) matchStr(s string) bool {
	return strings.HasPrefix(l.source[l.pos:], s)
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == CharNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.isAtEnd(); i++ {
		l.advance()
	}
}

func (l *Lexer) currentPosition() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.column}
}
