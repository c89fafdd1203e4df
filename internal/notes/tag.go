package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/ids"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
)

// Tag attaches a tag by name, creating the tag on first use. Names are
// unique per user and compared lowercased.
func (s *Service) Tag(ctx context.Context, userID, noteID, name string) (*model.NoteTag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: empty tag name", appErr.ErrInvalid)
	}
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionEdit); err != nil {
		return nil, err
	}

	tag, err := s.tags.GetByName(ctx, userID, name)
	if appErr.IsNotFound(err) {
		tag = &model.NoteTag{
			ID:     ids.New(),
			UserID: userID,
			Name:   name,
			Ctime:  timeutil.NowMilli(),
		}
		if cerr := s.tags.Create(ctx, tag); cerr != nil {
			// concurrent first use of the same name
			if !appErr.IsConflict(cerr) {
				return nil, cerr
			}
			if tag, err = s.tags.GetByName(ctx, userID, name); err != nil {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.tags.Attach(ctx, noteID, tag.ID, timeutil.NowMilli()); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *Service) Untag(ctx context.Context, userID, noteID, name string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionEdit); err != nil {
		return err
	}
	tag, err := s.tags.GetByName(ctx, userID, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	return s.tags.Detach(ctx, noteID, tag.ID)
}

func (s *Service) ListTags(ctx context.Context, userID string) ([]model.NoteTag, error) {
	return s.tags.ListByUser(ctx, userID)
}

func (s *Service) ListNoteTags(ctx context.Context, userID, noteID string) ([]model.NoteTag, error) {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.tags.ListByNote(ctx, noteID)
}

// DeleteTag removes the tag and all of its note relations.
func (s *Service) DeleteTag(ctx context.Context, userID, name string) error {
	tag, err := s.tags.GetByName(ctx, userID, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	return s.tags.Delete(ctx, tag.ID)
}
