package glaze

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
)

// PositionError is returned by engines when a failure can be pinned to a
// line of the template source. Lines are relative to the template data,
// starting at 1.
type PositionError struct {
	Line   int
	Column int
	Err    error
}

// AtLine wraps err with a source position.
func AtLine(line, column int, err error) *PositionError {
	return &PositionError{Line: line, Column: column, Err: err}
}

func (e *PositionError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// newCategorized builds a cuserr error stamped with its category.
func newCategorized(category ErrorCategory, code, msg string, cause error) *cuserr.CustomError {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, code, msg)
	} else {
		err = cuserr.NewValidationError(code, msg)
	}
	return err.WithMetadata(MetaKeyCategory, string(category))
}

// NewConfigError creates an error for invalid arguments or registry misuse
func NewConfigError(msg string) *cuserr.CustomError {
	return newCategorized(CategoryConfig, ErrCodeConfig, msg, nil)
}

// NewFinalizedError creates the error returned by mutators of a finalized registry
func NewFinalizedError(operation string) error {
	return NewConfigError(ErrMsgRegistryFinalized).
		WithMetadata(MetaKeyOperation, operation)
}

// NewEngineNotFoundError creates the error for a path no engine is registered for
func NewEngineNotFoundError(path string) error {
	return cuserr.NewNotFoundError(MetaKeyEngine, ErrMsgEngineNotFound).
		WithMetadata(MetaKeyCategory, string(CategoryConfig)).
		WithMetadata(MetaKeyPath, path)
}

// NewLoadError creates a recoverable error for a lazy engine whose target could not be loaded
func NewLoadError(identifier, target string, cause error) error {
	return newCategorized(CategoryLoad, ErrCodeLoad, ErrMsgLoadFailed, cause).
		WithMetadata(MetaKeyIdentifier, identifier).
		WithMetadata(MetaKeyTarget, target)
}

// NewNameError creates a fatal error for a lazy identifier that is invalid or never got defined
func NewNameError(msg, identifier, target string) error {
	return newCategorized(CategoryName, ErrCodeName, msg, nil).
		WithMetadata(MetaKeyIdentifier, identifier).
		WithMetadata(MetaKeyTarget, target)
}

// NewParseError creates an error for template source rejected during preparation
func NewParseError(file string, line int, cause error) error {
	return newCategorized(CategoryParse, ErrCodeParse, ErrMsgPrepareFailed, cause).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyLine, strconv.Itoa(line))
}

// NewEvaluationError creates an error for a failure raised while rendering
func NewEvaluationError(file string, line int, cause error) error {
	return newCategorized(CategoryEvaluation, ErrCodeEvaluation, ErrMsgEvaluationFailed, cause).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyLine, strconv.Itoa(line))
}

// NewLocalsKeyError rejects a locals key that is not a valid variable name
func NewLocalsKeyError(key string) error {
	msg := fmt.Sprintf(FmtLocalsKeyMessage, ErrMsgInvalidLocalsKey, key, ErrMsgLocalsKeyHint)
	return newCategorized(CategoryEvaluation, ErrCodeEvaluation, msg, nil).
		WithMetadata(MetaKeyKey, key)
}

// NewEncodingError creates an error for undecodable template bytes
func NewEncodingError(msg, encoding string, cause error) error {
	return newCategorized(CategoryEncoding, ErrCodeEncoding, msg, cause).
		WithMetadata(MetaKeyEncoding, encoding)
}

// NewStoreError creates an error for a failed source store operation
func NewStoreError(msg, operation, path string, cause error) error {
	return newCategorized(CategoryStore, ErrCodeStore, msg, cause).
		WithMetadata(MetaKeyOperation, operation).
		WithMetadata(MetaKeyPath, path)
}

// ErrorCategoryOf reports the category of the outermost library error in err's chain.
func ErrorCategoryOf(err error) ErrorCategory {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return CategoryNone
	}
	category, ok := customErr.GetMetadata(MetaKeyCategory)
	if !ok {
		return CategoryNone
	}
	return ErrorCategory(category)
}

// IsConfigError reports whether err is an argument or registry usage error.
func IsConfigError(err error) bool { return ErrorCategoryOf(err) == CategoryConfig }

// IsLoadError reports whether err is a recoverable lazy load failure.
func IsLoadError(err error) bool { return ErrorCategoryOf(err) == CategoryLoad }

// IsNameError reports whether err is a fatal lazy identifier failure.
func IsNameError(err error) bool { return ErrorCategoryOf(err) == CategoryName }

// IsParseError reports whether err came from template preparation.
func IsParseError(err error) bool { return ErrorCategoryOf(err) == CategoryParse }

// IsEvaluationError reports whether err came from rendering.
func IsEvaluationError(err error) bool { return ErrorCategoryOf(err) == CategoryEvaluation }

// IsEncodingError reports whether err came from decoding template bytes.
func IsEncodingError(err error) bool { return ErrorCategoryOf(err) == CategoryEncoding }

// IsStoreError reports whether err came from a source store.
func IsStoreError(err error) bool { return ErrorCategoryOf(err) == CategoryStore }

// ErrorLine extracts the absolute template line recorded on a parse or evaluation error.
func ErrorLine(err error) (int, bool) {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return 0, false
	}
	raw, ok := customErr.GetMetadata(MetaKeyLine)
	if !ok {
		return 0, false
	}
	line, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return 0, false
	}
	return line, true
}
