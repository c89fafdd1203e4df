package notes

import (
	"context"
	"fmt"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
)

// Lock takes the advisory edit lock. It is re-entrant for the holder, and
// a lock left behind longer than the configured TTL counts as free.
func (s *Service) Lock(ctx context.Context, userID, noteID string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionEdit); err != nil {
		return err
	}
	now := timeutil.NowMilli()
	ok, err := s.notes.Lock(ctx, noteID, userID, now, now-s.lockTTL().Milliseconds())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: held by %s", appErr.ErrAlreadyLocked, note.LockedBy)
	}
	return nil
}

// Unlock releases the caller's own lock. Releasing an unlocked note is a
// no-op; releasing someone else's lock is rejected.
func (s *Service) Unlock(ctx context.Context, userID, noteID string) error {
	ok, err := s.notes.Unlock(ctx, noteID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if note.LockedBy == "" {
		return nil
	}
	return fmt.Errorf("%w: held by %s", appErr.ErrNotLockHolder, note.LockedBy)
}

// ForceUnlock clears the lock regardless of holder. Reserved for the note
// owner and admin collaborators.
func (s *Service) ForceUnlock(ctx context.Context, userID, noteID string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionAdmin); err != nil {
		return err
	}
	return s.notes.ForceUnlock(ctx, noteID)
}
