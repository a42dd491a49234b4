package internal

// TokenType represents the type of an interpolation token
type TokenType string

// Token type constants
const (
	TokenTypeText TokenType = "TEXT"
	TokenTypeExpr TokenType = "EXPR"
	TokenTypeEOF  TokenType = "EOF"
)

// Interpolation delimiters
const (
	StrOpenDelim    = "#{"
	StrCloseDelim   = "}"
	StrEscapedOpen  = `\#{`
	CharOpenBrace   = '{'
	CharCloseBrace  = '}'
	CharBackslash   = '\\'
	CharNewline     = '\n'
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBacktick    = '`'
)

// Error messages
const (
	ErrMsgUnterminatedExpr   = "unterminated interpolation"
	ErrMsgUnterminatedString = "unterminated string literal in interpolation"
	ErrMsgEmptyExpr          = "empty interpolation"
)

// Log messages
const (
	LogMsgLexerCreated   = "interpolation lexer created"
	LogMsgTokenizerStart = "tokenizing interpolation source"
	LogMsgTokenizerEnd   = "interpolation source tokenized"
)

// Log fields
const (
	LogFieldSource = "source_length"
	LogFieldTokens = "tokens"
)

// Name patterns
const (
	PatternIdentifier = `^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`
	PatternLocalName  = `^[a-z_][A-Za-z0-9_]*$`
)

// Path handling
const (
	ExtensionSeparator = '.'
	PathSeparator      = '/'
)
