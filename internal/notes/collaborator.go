package notes

import (
	"context"
	"fmt"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/ids"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
)

// Grant gives or updates a collaborator's permission on a note. Only the
// owner and admin collaborators may grant.
func (s *Service) Grant(ctx context.Context, userID, noteID, granteeID, permission string) error {
	if !model.ValidPermission(permission) {
		return fmt.Errorf("%w: permission %q", appErr.ErrInvalid, permission)
	}
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionAdmin); err != nil {
		return err
	}
	if granteeID == note.UserID {
		return fmt.Errorf("%w: note owner already has full access", appErr.ErrInvalid)
	}
	return s.collabs.Upsert(ctx, &model.NoteCollaborator{
		ID:         ids.New(),
		NoteID:     noteID,
		UserID:     granteeID,
		Permission: permission,
		Ctime:      timeutil.NowMilli(),
	})
}

func (s *Service) Revoke(ctx context.Context, userID, noteID, granteeID string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionAdmin); err != nil {
		return err
	}
	return s.collabs.Delete(ctx, noteID, granteeID)
}

func (s *Service) ListCollaborators(ctx context.Context, userID, noteID string) ([]model.NoteCollaborator, error) {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.collabs.ListByNote(ctx, noteID)
}
