package errors

import (
	"errors"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errcode"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalid         = errors.New("invalid")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrSizeExceeded    = errors.New("file size exceeded")
	ErrLocked          = errors.New("note locked by another user")
	ErrAlreadyLocked   = errors.New("note already locked")
	ErrNotLockHolder   = errors.New("not lock holder")
	ErrSelfLink        = errors.New("note cannot link to itself")
	ErrDuplicateLink   = errors.New("link already exists")
	ErrCyclicFolder    = errors.New("destination is a descendant")
	ErrSessionArchived = errors.New("chat session archived")
	ErrAIUnavailable   = errors.New("ai provider unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is one of the no-partial-mutation
// rejections: lock contention, duplicate/self links, cyclic folder moves.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrAlreadyLocked) ||
		errors.Is(err, ErrNotLockHolder) ||
		errors.Is(err, ErrSelfLink) ||
		errors.Is(err, ErrDuplicateLink) ||
		errors.Is(err, ErrCyclicFolder)
}

// IsValidation reports whether err was rejected before any write.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrSizeExceeded)
}

var codes = []struct {
	err  error
	code int
}{
	{ErrNotFound, errcode.ErrNotFound},
	{ErrForbidden, errcode.ErrForbidden},
	{ErrInvalid, errcode.ErrInvalid},
	{ErrConflict, errcode.ErrConflict},
	{ErrInternal, errcode.ErrInternal},
	{ErrUnsupportedType, errcode.ErrUnsupportedType},
	{ErrSizeExceeded, errcode.ErrSizeExceeded},
	{ErrLocked, errcode.ErrLocked},
	{ErrAlreadyLocked, errcode.ErrAlreadyLocked},
	{ErrNotLockHolder, errcode.ErrNotLockHolder},
	{ErrSelfLink, errcode.ErrSelfLink},
	{ErrDuplicateLink, errcode.ErrDuplicateLink},
	{ErrCyclicFolder, errcode.ErrCyclicFolder},
	{ErrSessionArchived, errcode.ErrSessionArchived},
	{ErrAIUnavailable, errcode.ErrAIUnavailable},
}

// Code maps err to its stable numeric code for callers that expose
// errors over an API or log them in a machine-readable form.
func Code(err error) int {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return errcode.ErrUnknown
}
