package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrUnsupportedType
	ErrSizeExceeded
	ErrLocked
	ErrAlreadyLocked
	ErrNotLockHolder
	ErrSelfLink
	ErrDuplicateLink
	ErrCyclicFolder
	ErrSessionArchived
	ErrAIUnavailable
)
