package notes

import (
	"context"
	"testing"
	"time"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/config"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *memGraph) {
	g := newMemGraph()
	cfg := config.NotesConfig{LockTTLMinutes: 30, VersionMaxKeep: 50}
	svc := NewService(cfg, g, memVersions{g}, memFolders{g}, memTags{g}, memLinks{g}, memCollabs{g})
	return svc, g
}

func mustCreate(t *testing.T, svc *Service, userID, title string) *model.Note {
	t.Helper()
	note, err := svc.Create(context.Background(), userID, CreateNoteInput{Title: title, Content: "body of " + title})
	require.NoError(t, err)
	return note
}

func TestCreateNoteStartsAtVersionOne(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	note := mustCreate(t, svc, "u1", "first")
	assert.Equal(t, 1, note.Version)
	assert.Empty(t, note.PreviousVersionID)
	assert.Equal(t, 3, note.WordCount)

	versions, err := svc.ListVersions(ctx, "u1", note.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)

	_, err = svc.Create(ctx, "u1", CreateNoteInput{Title: "  "})
	assert.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestUpdateContentChainsVersions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "first")

	v1, err := svc.GetVersion(ctx, "u1", note.ID, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateContent(ctx, "u1", note.ID, "first", "revised body")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, v1.ID, updated.PreviousVersionID)

	versions, err := svc.ListVersions(ctx, "u1", note.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, "revised body", versions[0].Content)
}

func TestRestoreAppendsNewVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "first")

	_, err := svc.UpdateContent(ctx, "u1", note.ID, "first", "second draft")
	require.NoError(t, err)

	restored, err := svc.Restore(ctx, "u1", note.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Version)
	assert.Equal(t, "body of first", restored.Content)
}

func TestLockBlocksOtherEditors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "shared")
	require.NoError(t, svc.Grant(ctx, "u1", note.ID, "u2", model.PermissionEdit))

	require.NoError(t, svc.Lock(ctx, "u1", note.ID))
	// re-entrant for the holder
	require.NoError(t, svc.Lock(ctx, "u1", note.ID))

	err := svc.Lock(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, appErr.ErrAlreadyLocked)

	_, err = svc.UpdateContent(ctx, "u2", note.ID, "shared", "edit attempt")
	assert.ErrorIs(t, err, appErr.ErrLocked)

	_, err = svc.UpdateContent(ctx, "u1", note.ID, "shared", "holder edit")
	require.NoError(t, err)

	err = svc.Unlock(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, appErr.ErrNotLockHolder)

	require.NoError(t, svc.Unlock(ctx, "u1", note.ID))
	require.NoError(t, svc.Unlock(ctx, "u1", note.ID))
	require.NoError(t, svc.Lock(ctx, "u2", note.ID))
}

func TestStaleLockIsAcquirable(t *testing.T) {
	svc, g := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "stale")
	require.NoError(t, svc.Grant(ctx, "u1", note.ID, "u2", model.PermissionEdit))
	require.NoError(t, svc.Lock(ctx, "u1", note.ID))

	// age the lock past the TTL
	g.mu.Lock()
	g.notes[note.ID].LockedAt -= (31 * time.Minute).Milliseconds()
	g.mu.Unlock()

	require.NoError(t, svc.Lock(ctx, "u2", note.ID))
	got, err := svc.Get(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.LockedBy)
}

func TestForceUnlockRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "locked")
	require.NoError(t, svc.Grant(ctx, "u1", note.ID, "u2", model.PermissionEdit))
	require.NoError(t, svc.Grant(ctx, "u1", note.ID, "u3", model.PermissionAdmin))
	require.NoError(t, svc.Lock(ctx, "u2", note.ID))

	err := svc.ForceUnlock(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, appErr.ErrForbidden)

	require.NoError(t, svc.ForceUnlock(ctx, "u3", note.ID))
	got, err := svc.Get(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LockedBy)
}

func TestPermissionGates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "private")

	_, err := svc.Get(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, appErr.ErrForbidden)

	require.NoError(t, svc.Grant(ctx, "u1", note.ID, "u2", model.PermissionView))
	_, err = svc.Get(ctx, "u2", note.ID)
	require.NoError(t, err)

	_, err = svc.UpdateContent(ctx, "u2", note.ID, "private", "viewer edit")
	assert.ErrorIs(t, err, appErr.ErrForbidden)

	err = svc.Delete(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, appErr.ErrForbidden)

	err = svc.Grant(ctx, "u2", note.ID, "u3", model.PermissionView)
	assert.ErrorIs(t, err, appErr.ErrForbidden)

	err = svc.Grant(ctx, "u1", note.ID, "u2", "owner")
	assert.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestLinkRules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustCreate(t, svc, "u1", "a")
	b := mustCreate(t, svc, "u1", "b")

	_, err := svc.Link(ctx, "u1", a.ID, a.ID, model.LinkTypeRelated)
	assert.ErrorIs(t, err, appErr.ErrSelfLink)

	_, err = svc.Link(ctx, "u1", a.ID, b.ID, "friend")
	assert.ErrorIs(t, err, appErr.ErrInvalid)

	link, err := svc.Link(ctx, "u1", a.ID, b.ID, model.LinkTypeRelated)
	require.NoError(t, err)
	assert.Equal(t, model.LinkTypeRelated, link.LinkType)

	_, err = svc.Link(ctx, "u1", a.ID, b.ID, model.LinkTypeReferenced)
	assert.ErrorIs(t, err, appErr.ErrDuplicateLink)

	links, err := svc.ListLinks(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	require.NoError(t, svc.Unlink(ctx, "u1", a.ID, b.ID))
	links, err = svc.ListLinks(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestFolderCycleRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	top, err := svc.CreateFolder(ctx, "u1", "top", "")
	require.NoError(t, err)
	mid, err := svc.CreateFolder(ctx, "u1", "mid", top.ID)
	require.NoError(t, err)
	leaf, err := svc.CreateFolder(ctx, "u1", "leaf", mid.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MoveFolder(ctx, "u1", top.ID, top.ID), appErr.ErrCyclicFolder)
	assert.ErrorIs(t, svc.MoveFolder(ctx, "u1", top.ID, leaf.ID), appErr.ErrCyclicFolder)
	require.NoError(t, svc.MoveFolder(ctx, "u1", leaf.ID, top.ID))

	_, err = svc.CreateFolder(ctx, "u1", "mid", top.ID)
	assert.ErrorIs(t, err, appErr.ErrConflict)
}

func TestFolderSiblingNamesUnique(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// top level counts as one set of siblings too
	_, err := svc.CreateFolder(ctx, "u1", "inbox", "")
	require.NoError(t, err)
	_, err = svc.CreateFolder(ctx, "u1", "inbox", "")
	assert.ErrorIs(t, err, appErr.ErrConflict)

	// other users are free to reuse the name
	_, err = svc.CreateFolder(ctx, "u2", "inbox", "")
	require.NoError(t, err)

	archive, err := svc.CreateFolder(ctx, "u1", "archive", "")
	require.NoError(t, err)

	// rename and move clash with an existing sibling the same way
	assert.ErrorIs(t, svc.RenameFolder(ctx, "u1", archive.ID, "inbox"), appErr.ErrConflict)

	nested, err := svc.CreateFolder(ctx, "u1", "archive", archive.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.MoveFolder(ctx, "u1", nested.ID, ""), appErr.ErrConflict)
}

func TestNoteNestingCycleRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	parent := mustCreate(t, svc, "u1", "parent")
	child := mustCreate(t, svc, "u1", "child")

	require.NoError(t, svc.SetParentNote(ctx, "u1", child.ID, parent.ID))
	assert.ErrorIs(t, svc.SetParentNote(ctx, "u1", parent.ID, child.ID), appErr.ErrCyclicFolder)
	assert.ErrorIs(t, svc.SetParentNote(ctx, "u1", parent.ID, parent.ID), appErr.ErrCyclicFolder)
}

func TestDeleteCascadesSubtree(t *testing.T) {
	svc, g := newTestService()
	ctx := context.Background()
	parent := mustCreate(t, svc, "u1", "parent")
	child := mustCreate(t, svc, "u1", "child")
	grandchild := mustCreate(t, svc, "u1", "grandchild")
	other := mustCreate(t, svc, "u1", "other")

	require.NoError(t, svc.SetParentNote(ctx, "u1", child.ID, parent.ID))
	require.NoError(t, svc.SetParentNote(ctx, "u1", grandchild.ID, child.ID))
	_, err := svc.Link(ctx, "u1", other.ID, child.ID, model.LinkTypeRelated)
	require.NoError(t, err)
	_, err = svc.Tag(ctx, "u1", child.ID, "todo")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", parent.ID))
	assert.Equal(t, 1, g.noteCount())

	_, err = svc.Get(ctx, "u1", grandchild.ID)
	assert.ErrorIs(t, err, appErr.ErrNotFound)
	links, err := svc.ListLinks(ctx, "u1", other.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestTags(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "tagged")

	tag, err := svc.Tag(ctx, "u1", note.ID, "  Research ")
	require.NoError(t, err)
	assert.Equal(t, "research", tag.Name)

	// same name reuses the tag
	again, err := svc.Tag(ctx, "u1", note.ID, "research")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)

	tags, err := svc.ListNoteTags(ctx, "u1", note.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	require.NoError(t, svc.Untag(ctx, "u1", note.ID, "research"))
	tags, err = svc.ListNoteTags(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	all, err := svc.ListTags(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	require.NoError(t, svc.DeleteTag(ctx, "u1", "research"))
	all, err = svc.ListTags(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRevoke(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	note := mustCreate(t, svc, "u1", "shared")
	require.NoError(t, svc.Grant(ctx, "u1", note.ID, "u2", model.PermissionEdit))

	collabs, err := svc.ListCollaborators(ctx, "u1", note.ID)
	require.NoError(t, err)
	require.Len(t, collabs, 1)

	require.NoError(t, svc.Revoke(ctx, "u1", note.ID, "u2"))
	_, err = svc.Get(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, appErr.ErrForbidden)
}
