package glaze

import (
	"errors"
	"fmt"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategories(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		check    func(error) bool
	}{
		{"config", NewConfigError(ErrMsgNilEngine), CategoryConfig, IsConfigError},
		{"finalized", NewFinalizedError(OpRegister), CategoryConfig, IsConfigError},
		{"engine not found", NewEngineNotFoundError("x.bogus"), CategoryConfig, IsConfigError},
		{"load", NewLoadError("Foo", "pkg/foo", cause), CategoryLoad, IsLoadError},
		{"name", NewNameError(ErrMsgInvalidIdentifier, "#foo", "pkg/foo"), CategoryName, IsNameError},
		{"parse", NewParseError("a.str", 3, cause), CategoryParse, IsParseError},
		{"evaluation", NewEvaluationError("a.str", 4, cause), CategoryEvaluation, IsEvaluationError},
		{"locals key", NewLocalsKeyError("a-b"), CategoryEvaluation, IsEvaluationError},
		{"encoding", NewEncodingError(ErrMsgInvalidBytes, "utf-8", nil), CategoryEncoding, IsEncodingError},
		{"store", NewStoreError(ErrMsgStoreReadFailed, StoreOpFetch, "a.str", cause), CategoryStore, IsStoreError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, ErrorCategoryOf(tt.err))
			assert.True(t, tt.check(tt.err))

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.category, ErrorCategoryOf(wrapped))
		})
	}
}

func TestErrorCategoryOf_Foreign(t *testing.T) {
	assert.Equal(t, CategoryNone, ErrorCategoryOf(nil))
	assert.Equal(t, CategoryNone, ErrorCategoryOf(errors.New("plain")))
	assert.Equal(t, CategoryNone, ErrorCategoryOf(cuserr.NewInternalError("x", nil)))
	assert.False(t, IsConfigError(errors.New("plain")))
}

func TestErrorMetadata(t *testing.T) {
	cause := errors.New("missing package")
	err := NewLoadError("Foo", "pkg/foo", cause)

	assert.ErrorIs(t, err, cause)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	identifier, _ := customErr.GetMetadata(MetaKeyIdentifier)
	target, _ := customErr.GetMetadata(MetaKeyTarget)
	assert.Equal(t, "Foo", identifier)
	assert.Equal(t, "pkg/foo", target)
}

func TestPositionError(t *testing.T) {
	err := AtLine(3, 0, errBadToken)
	assert.Equal(t, "line 3: bad token", err.Error())
	assert.ErrorIs(t, err, errBadToken)

	withColumn := AtLine(3, 7, errBadToken)
	assert.Equal(t, "line 3, column 7: bad token", withColumn.Error())
}

func TestErrorLine(t *testing.T) {
	line, ok := ErrorLine(NewParseError("a.str", 42, errBadToken))
	assert.True(t, ok)
	assert.Equal(t, 42, line)

	_, ok = ErrorLine(NewConfigError(ErrMsgNilEngine))
	assert.False(t, ok)

	_, ok = ErrorLine(errors.New("plain"))
	assert.False(t, ok)
}
