package notes

import (
	"context"
	"fmt"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/ids"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
)

// Link records a typed edge between two notes the caller can see.
func (s *Service) Link(ctx context.Context, userID, sourceID, targetID, linkType string) (*model.NoteLink, error) {
	if !model.ValidLinkType(linkType) {
		return nil, fmt.Errorf("%w: link type %q", appErr.ErrInvalid, linkType)
	}
	if sourceID == targetID {
		return nil, appErr.ErrSelfLink
	}
	source, err := s.notes.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, userID, source, model.PermissionEdit); err != nil {
		return nil, err
	}
	target, err := s.notes.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, userID, target, model.PermissionView); err != nil {
		return nil, err
	}

	link := &model.NoteLink{
		ID:           ids.New(),
		SourceNoteID: sourceID,
		TargetNoteID: targetID,
		LinkType:     linkType,
		Ctime:        timeutil.NowMilli(),
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) Unlink(ctx context.Context, userID, sourceID, targetID string) error {
	source, err := s.notes.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, source, model.PermissionEdit); err != nil {
		return err
	}
	return s.links.Delete(ctx, sourceID, targetID)
}

// ListLinks returns edges in both directions for the note.
func (s *Service) ListLinks(ctx context.Context, userID, noteID string) ([]model.NoteLink, error) {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.links.ListForNote(ctx, noteID)
}
