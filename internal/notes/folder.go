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

// CreateFolder adds a folder under parentID ("" for top level). Sibling
// names are unique per user; a clash surfaces as ErrConflict.
func (s *Service) CreateFolder(ctx context.Context, userID, name, parentID string) (*model.NoteFolder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty folder name", appErr.ErrInvalid)
	}
	if parentID != "" {
		if _, err := s.ownedFolder(ctx, userID, parentID); err != nil {
			return nil, err
		}
	}
	now := timeutil.NowMilli()
	folder := &model.NoteFolder{
		ID:             ids.New(),
		UserID:         userID,
		Name:           name,
		ParentFolderID: parentID,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *Service) ListFolders(ctx context.Context, userID string) ([]model.NoteFolder, error) {
	return s.folders.ListByUser(ctx, userID)
}

func (s *Service) RenameFolder(ctx context.Context, userID, folderID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty folder name", appErr.ErrInvalid)
	}
	if _, err := s.ownedFolder(ctx, userID, folderID); err != nil {
		return err
	}
	return s.folders.Rename(ctx, folderID, name, timeutil.NowMilli())
}

// MoveFolder re-parents a folder. Moving a folder into itself or any of
// its descendants is rejected.
func (s *Service) MoveFolder(ctx context.Context, userID, folderID, parentID string) error {
	if _, err := s.ownedFolder(ctx, userID, folderID); err != nil {
		return err
	}
	if parentID != "" {
		if parentID == folderID {
			return appErr.ErrCyclicFolder
		}
		descendant, err := s.folders.IsDescendant(ctx, folderID, parentID)
		if err != nil {
			return err
		}
		if descendant {
			return appErr.ErrCyclicFolder
		}
		if _, err := s.ownedFolder(ctx, userID, parentID); err != nil {
			return err
		}
	}
	return s.folders.SetParent(ctx, folderID, parentID, timeutil.NowMilli())
}

// DeleteFolder removes the folder and its subfolders; contained notes
// fall back to no folder instead of being deleted.
func (s *Service) DeleteFolder(ctx context.Context, userID, folderID string) error {
	if _, err := s.ownedFolder(ctx, userID, folderID); err != nil {
		return err
	}
	return s.folders.Delete(ctx, folderID)
}
