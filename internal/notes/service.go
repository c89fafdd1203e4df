// Package notes is the knowledge-graph store: notes with an append-only
// version history, folder and parent-note hierarchies, typed links, tags,
// and per-note collaborator grants guarded by an advisory edit lock.
package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/config"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/ids"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
)

type NoteStore interface {
	Create(ctx context.Context, note *model.Note, snapshot *model.NoteVersion) error
	GetByID(ctx context.Context, noteID string) (*model.Note, error)
	ListByUser(ctx context.Context, userID string, limit, offset uint) ([]model.Note, error)
	UpdateContent(ctx context.Context, note *model.Note, prevSnapshotID string, snapshot *model.NoteVersion, keepVersions int) error
	Lock(ctx context.Context, noteID, userID string, now, staleBefore int64) (bool, error)
	Unlock(ctx context.Context, noteID, userID string) (bool, error)
	ForceUnlock(ctx context.Context, noteID string) error
	SetFolder(ctx context.Context, noteID, folderID string, mtime int64) error
	SetParent(ctx context.Context, noteID, parentID string, mtime int64) error
	IsDescendant(ctx context.Context, rootID, candidate string) (bool, error)
	Delete(ctx context.Context, noteID string) error
}

type VersionStore interface {
	ListByNote(ctx context.Context, noteID string) ([]model.NoteVersion, error)
	GetByVersion(ctx context.Context, noteID string, version int) (*model.NoteVersion, error)
	GetByID(ctx context.Context, id string) (*model.NoteVersion, error)
}

type FolderStore interface {
	Create(ctx context.Context, folder *model.NoteFolder) error
	GetByID(ctx context.Context, folderID string) (*model.NoteFolder, error)
	ListByUser(ctx context.Context, userID string) ([]model.NoteFolder, error)
	Rename(ctx context.Context, folderID, name string, mtime int64) error
	SetParent(ctx context.Context, folderID, parentID string, mtime int64) error
	IsDescendant(ctx context.Context, rootID, candidate string) (bool, error)
	Delete(ctx context.Context, folderID string) error
}

type TagStore interface {
	Create(ctx context.Context, tag *model.NoteTag) error
	GetByName(ctx context.Context, userID, name string) (*model.NoteTag, error)
	ListByUser(ctx context.Context, userID string) ([]model.NoteTag, error)
	Delete(ctx context.Context, tagID string) error
	Attach(ctx context.Context, noteID, tagID string, ctime int64) error
	Detach(ctx context.Context, noteID, tagID string) error
	ListByNote(ctx context.Context, noteID string) ([]model.NoteTag, error)
}

type LinkStore interface {
	Create(ctx context.Context, link *model.NoteLink) error
	Delete(ctx context.Context, sourceID, targetID string) error
	ListForNote(ctx context.Context, noteID string) ([]model.NoteLink, error)
}

type CollaboratorStore interface {
	Upsert(ctx context.Context, c *model.NoteCollaborator) error
	Get(ctx context.Context, noteID, userID string) (*model.NoteCollaborator, error)
	ListByNote(ctx context.Context, noteID string) ([]model.NoteCollaborator, error)
	Delete(ctx context.Context, noteID, userID string) error
}

type Service struct {
	cfg      config.NotesConfig
	notes    NoteStore
	versions VersionStore
	folders  FolderStore
	tags     TagStore
	links    LinkStore
	collabs  CollaboratorStore
}

func NewService(cfg config.NotesConfig, notes NoteStore, versions VersionStore, folders FolderStore, tags TagStore, links LinkStore, collabs CollaboratorStore) *Service {
	return &Service{
		cfg:      cfg,
		notes:    notes,
		versions: versions,
		folders:  folders,
		tags:     tags,
		links:    links,
		collabs:  collabs,
	}
}

type CreateNoteInput struct {
	Title               string
	Content             string
	FolderID            string
	ParentNoteID        string
	LinkedDocumentID    string
	LinkedChatSessionID string
}

func (s *Service) Create(ctx context.Context, userID string, in CreateNoteInput) (*model.Note, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: empty title", appErr.ErrInvalid)
	}
	if in.FolderID != "" {
		if _, err := s.ownedFolder(ctx, userID, in.FolderID); err != nil {
			return nil, err
		}
	}
	if in.ParentNoteID != "" {
		parent, err := s.notes.GetByID(ctx, in.ParentNoteID)
		if err != nil {
			return nil, err
		}
		if err := s.requirePermission(ctx, userID, parent, model.PermissionEdit); err != nil {
			return nil, err
		}
	}

	now := timeutil.NowMilli()
	note := &model.Note{
		ID:                  ids.New(),
		UserID:              userID,
		FolderID:            in.FolderID,
		Title:               in.Title,
		Content:             in.Content,
		Version:             1,
		ParentNoteID:        in.ParentNoteID,
		LinkedDocumentID:    in.LinkedDocumentID,
		LinkedChatSessionID: in.LinkedChatSessionID,
		Ctime:               now,
		Mtime:               now,
	}
	fillDerived(note)
	snapshot := &model.NoteVersion{
		ID:      ids.New(),
		NoteID:  note.ID,
		UserID:  userID,
		Version: 1,
		Title:   note.Title,
		Content: note.Content,
		Ctime:   now,
	}
	if err := s.notes.Create(ctx, note, snapshot); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) Get(ctx context.Context, userID, noteID string) (*model.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionView); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset uint) ([]model.Note, error) {
	return s.notes.ListByUser(ctx, userID, limit, offset)
}

// UpdateContent appends a new version. The caller must hold edit
// permission and the note must not be locked by someone else; a version
// mismatch from a concurrent edit surfaces as ErrConflict.
func (s *Service) UpdateContent(ctx context.Context, userID, noteID, title, content string) (*model.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty title", appErr.ErrInvalid)
	}
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionEdit); err != nil {
		return nil, err
	}
	if s.lockedByOther(note, userID) {
		return nil, fmt.Errorf("%w: held by %s", appErr.ErrLocked, note.LockedBy)
	}

	prevSnapshotID := ""
	if cur, err := s.versions.GetByVersion(ctx, noteID, note.Version); err == nil {
		prevSnapshotID = cur.ID
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}

	now := timeutil.NowMilli()
	note.Title = title
	note.Content = content
	note.Version++
	note.PreviousVersionID = prevSnapshotID
	note.Mtime = now
	fillDerived(note)
	snapshot := &model.NoteVersion{
		ID:      ids.New(),
		NoteID:  noteID,
		UserID:  userID,
		Version: note.Version,
		Title:   title,
		Content: content,
		Ctime:   now,
	}
	if err := s.notes.UpdateContent(ctx, note, prevSnapshotID, snapshot, s.cfg.VersionMaxKeep); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListVersions(ctx context.Context, userID, noteID string) ([]model.NoteVersion, error) {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.versions.ListByNote(ctx, noteID)
}

func (s *Service) GetVersion(ctx context.Context, userID, noteID string, version int) (*model.NoteVersion, error) {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.versions.GetByVersion(ctx, noteID, version)
}

// Restore re-applies an older snapshot as a new version on top of the
// chain; history is never rewritten.
func (s *Service) Restore(ctx context.Context, userID, noteID string, version int) (*model.Note, error) {
	snap, err := s.GetVersion(ctx, userID, noteID, version)
	if err != nil {
		return nil, err
	}
	return s.UpdateContent(ctx, userID, noteID, snap.Title, snap.Content)
}

// Delete removes the note and its whole child-note subtree along with
// versions, tag relations, links, and collaborator grants.
func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionAdmin); err != nil {
		return err
	}
	return s.notes.Delete(ctx, noteID)
}

func (s *Service) MoveToFolder(ctx context.Context, userID, noteID, folderID string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionEdit); err != nil {
		return err
	}
	if folderID != "" {
		if _, err := s.ownedFolder(ctx, userID, folderID); err != nil {
			return err
		}
	}
	return s.notes.SetFolder(ctx, noteID, folderID, timeutil.NowMilli())
}

// SetParentNote re-nests a note. Making a note a child of itself or of
// one of its own descendants is rejected.
func (s *Service) SetParentNote(ctx context.Context, userID, noteID, parentID string) error {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.requirePermission(ctx, userID, note, model.PermissionEdit); err != nil {
		return err
	}
	if parentID != "" {
		if parentID == noteID {
			return appErr.ErrCyclicFolder
		}
		descendant, err := s.notes.IsDescendant(ctx, noteID, parentID)
		if err != nil {
			return err
		}
		if descendant {
			return appErr.ErrCyclicFolder
		}
		parent, err := s.notes.GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		if err := s.requirePermission(ctx, userID, parent, model.PermissionEdit); err != nil {
			return err
		}
	}
	return s.notes.SetParent(ctx, noteID, parentID, timeutil.NowMilli())
}

func (s *Service) requirePermission(ctx context.Context, userID string, note *model.Note, want string) error {
	if note.UserID == userID {
		return nil
	}
	collab, err := s.collabs.Get(ctx, note.ID, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrForbidden
		}
		return err
	}
	if !model.PermissionAtLeast(collab.Permission, want) {
		return appErr.ErrForbidden
	}
	return nil
}

func (s *Service) ownedFolder(ctx context.Context, userID, folderID string) (*model.NoteFolder, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.UserID != userID {
		return nil, appErr.ErrForbidden
	}
	return folder, nil
}

func (s *Service) lockTTL() time.Duration {
	return time.Duration(s.cfg.LockTTLMinutes) * time.Minute
}

func (s *Service) lockedByOther(note *model.Note, userID string) bool {
	if note.LockedBy == "" || note.LockedBy == userID {
		return false
	}
	return note.LockedAt >= timeutil.NowMilli()-s.lockTTL().Milliseconds()
}

func fillDerived(note *model.Note) {
	words := len(strings.Fields(note.Content))
	note.WordCount = words
	note.CharCount = len([]rune(note.Content))
	note.ReadTimeMinutes = 0
	if words > 0 {
		note.ReadTimeMinutes = (words + 199) / 200
	}
}
