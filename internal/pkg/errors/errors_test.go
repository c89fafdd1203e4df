package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errcode"
	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, errcode.ErrNotFound, Code(ErrNotFound))
	assert.Equal(t, errcode.ErrLocked, Code(fmt.Errorf("update note: %w", ErrLocked)))
	assert.Equal(t, errcode.ErrDuplicateLink, Code(ErrDuplicateLink))
	assert.Equal(t, errcode.ErrUnknown, Code(errors.New("boom")))
	assert.Equal(t, errcode.ErrUnknown, Code(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("get doc: %w", ErrNotFound)))
	assert.False(t, IsNotFound(ErrForbidden))
}

func TestIsConflict(t *testing.T) {
	for _, err := range []error{ErrConflict, ErrLocked, ErrAlreadyLocked, ErrNotLockHolder, ErrSelfLink, ErrDuplicateLink, ErrCyclicFolder} {
		assert.True(t, IsConflict(err), err.Error())
	}
	assert.False(t, IsConflict(ErrNotFound))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrSizeExceeded))
	assert.True(t, IsValidation(fmt.Errorf("ingest: %w", ErrUnsupportedType)))
	assert.False(t, IsValidation(ErrConflict))
}
