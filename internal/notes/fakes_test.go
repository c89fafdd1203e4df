package notes

import (
	"context"
	"sort"
	"sync"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

// memGraph backs all the store interfaces with maps, mirroring the
// postgres repos' behavior closely enough for the service semantics.
type memGraph struct {
	mu       sync.Mutex
	notes    map[string]*model.Note
	versions map[string][]model.NoteVersion
	folders  map[string]*model.NoteFolder
	tags     map[string]*model.NoteTag
	tagRels  map[string]map[string]bool
	links    map[string]*model.NoteLink
	collabs  map[string]*model.NoteCollaborator
}

func newMemGraph() *memGraph {
	return &memGraph{
		notes:    map[string]*model.Note{},
		versions: map[string][]model.NoteVersion{},
		folders:  map[string]*model.NoteFolder{},
		tags:     map[string]*model.NoteTag{},
		tagRels:  map[string]map[string]bool{},
		links:    map[string]*model.NoteLink{},
		collabs:  map[string]*model.NoteCollaborator{},
	}
}

func (g *memGraph) Create(_ context.Context, note *model.Note, snapshot *model.NoteVersion) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *note
	g.notes[note.ID] = &cp
	g.versions[note.ID] = []model.NoteVersion{*snapshot}
	return nil
}

func (g *memGraph) GetByID(_ context.Context, noteID string) (*model.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	note, ok := g.notes[noteID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *note
	return &cp, nil
}

func (g *memGraph) ListByUser(_ context.Context, userID string, _, _ uint) ([]model.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Note
	for _, n := range g.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *memGraph) UpdateContent(_ context.Context, note *model.Note, _ string, snapshot *model.NoteVersion, keep int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.notes[note.ID]
	if !ok {
		return appErr.ErrNotFound
	}
	if cur.Version != note.Version-1 {
		return appErr.ErrConflict
	}
	cp := *note
	cp.LockedBy = cur.LockedBy
	cp.LockedAt = cur.LockedAt
	g.notes[note.ID] = &cp
	g.versions[note.ID] = append(g.versions[note.ID], *snapshot)
	if keep > 0 && len(g.versions[note.ID]) > keep {
		g.versions[note.ID] = g.versions[note.ID][len(g.versions[note.ID])-keep:]
	}
	return nil
}

func (g *memGraph) Lock(_ context.Context, noteID, userID string, now, staleBefore int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	note, ok := g.notes[noteID]
	if !ok {
		return false, nil
	}
	if note.LockedBy != "" && note.LockedBy != userID && note.LockedAt >= staleBefore {
		return false, nil
	}
	note.LockedBy = userID
	note.LockedAt = now
	return true, nil
}

func (g *memGraph) Unlock(_ context.Context, noteID, userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	note, ok := g.notes[noteID]
	if !ok || note.LockedBy != userID {
		return false, nil
	}
	note.LockedBy = ""
	note.LockedAt = 0
	return true, nil
}

func (g *memGraph) ForceUnlock(_ context.Context, noteID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if note, ok := g.notes[noteID]; ok {
		note.LockedBy = ""
		note.LockedAt = 0
	}
	return nil
}

func (g *memGraph) SetFolder(_ context.Context, noteID, folderID string, mtime int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	note, ok := g.notes[noteID]
	if !ok {
		return appErr.ErrNotFound
	}
	note.FolderID = folderID
	note.Mtime = mtime
	return nil
}

func (g *memGraph) SetParent(_ context.Context, noteID, parentID string, mtime int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	note, ok := g.notes[noteID]
	if !ok {
		return appErr.ErrNotFound
	}
	note.ParentNoteID = parentID
	note.Mtime = mtime
	return nil
}

func (g *memGraph) IsDescendant(_ context.Context, rootID, candidate string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur := candidate
	for cur != "" {
		note, ok := g.notes[cur]
		if !ok {
			return false, nil
		}
		if note.ParentNoteID == rootID {
			return true, nil
		}
		cur = note.ParentNoteID
	}
	return false, nil
}

func (g *memGraph) Delete(_ context.Context, noteID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteSubtree(noteID)
	return nil
}

func (g *memGraph) deleteSubtree(noteID string) {
	for id, n := range g.notes {
		if n.ParentNoteID == noteID {
			g.deleteSubtree(id)
		}
	}
	delete(g.notes, noteID)
	delete(g.versions, noteID)
	delete(g.tagRels, noteID)
	for key, l := range g.links {
		if l.SourceNoteID == noteID || l.TargetNoteID == noteID {
			delete(g.links, key)
		}
	}
	for key, c := range g.collabs {
		if c.NoteID == noteID {
			delete(g.collabs, key)
		}
	}
}

func (g *memGraph) noteCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.notes)
}

// The remaining stores are view types over memGraph so their method
// names don't clash with NoteStore's.

type memVersions struct{ g *memGraph }

func (m memVersions) ListByNote(_ context.Context, noteID string) ([]model.NoteVersion, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	out := append([]model.NoteVersion(nil), m.g.versions[noteID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (m memVersions) GetByVersion(_ context.Context, noteID string, version int) (*model.NoteVersion, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	for _, v := range m.g.versions[noteID] {
		if v.Version == version {
			cp := v
			return &cp, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m memVersions) GetByID(_ context.Context, id string) (*model.NoteVersion, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	for _, versions := range m.g.versions {
		for _, v := range versions {
			if v.ID == id {
				cp := v
				return &cp, nil
			}
		}
	}
	return nil, appErr.ErrNotFound
}

type memFolders struct{ g *memGraph }

func (m memFolders) Create(_ context.Context, folder *model.NoteFolder) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	for _, f := range m.g.folders {
		if f.UserID == folder.UserID && f.Name == folder.Name && f.ParentFolderID == folder.ParentFolderID {
			return appErr.ErrConflict
		}
	}
	cp := *folder
	m.g.folders[folder.ID] = &cp
	return nil
}

func (m memFolders) GetByID(_ context.Context, folderID string) (*model.NoteFolder, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	f, ok := m.g.folders[folderID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m memFolders) ListByUser(_ context.Context, userID string) ([]model.NoteFolder, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	var out []model.NoteFolder
	for _, f := range m.g.folders {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memFolders) Rename(_ context.Context, folderID, name string, mtime int64) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	f, ok := m.g.folders[folderID]
	if !ok {
		return appErr.ErrNotFound
	}
	if m.siblingExists(f.UserID, name, f.ParentFolderID, folderID) {
		return appErr.ErrConflict
	}
	f.Name = name
	f.Mtime = mtime
	return nil
}

func (m memFolders) SetParent(_ context.Context, folderID, parentID string, mtime int64) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	f, ok := m.g.folders[folderID]
	if !ok {
		return appErr.ErrNotFound
	}
	if m.siblingExists(f.UserID, f.Name, parentID, folderID) {
		return appErr.ErrConflict
	}
	f.ParentFolderID = parentID
	f.Mtime = mtime
	return nil
}

func (m memFolders) siblingExists(userID, name, parentID, excludeID string) bool {
	for id, f := range m.g.folders {
		if id != excludeID && f.UserID == userID && f.Name == name && f.ParentFolderID == parentID {
			return true
		}
	}
	return false
}

func (m memFolders) IsDescendant(_ context.Context, rootID, candidate string) (bool, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	cur := candidate
	for cur != "" {
		f, ok := m.g.folders[cur]
		if !ok {
			return false, nil
		}
		if f.ParentFolderID == rootID {
			return true, nil
		}
		cur = f.ParentFolderID
	}
	return false, nil
}

func (m memFolders) Delete(_ context.Context, folderID string) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	delete(m.g.folders, folderID)
	for _, n := range m.g.notes {
		if n.FolderID == folderID {
			n.FolderID = ""
		}
	}
	return nil
}

// TagStore

type memTags struct{ g *memGraph }

func (m memTags) Create(_ context.Context, tag *model.NoteTag) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	for _, t := range m.g.tags {
		if t.UserID == tag.UserID && t.Name == tag.Name {
			return appErr.ErrConflict
		}
	}
	cp := *tag
	m.g.tags[tag.ID] = &cp
	return nil
}

func (m memTags) GetByName(_ context.Context, userID, name string) (*model.NoteTag, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	for _, t := range m.g.tags {
		if t.UserID == userID && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m memTags) ListByUser(_ context.Context, userID string) ([]model.NoteTag, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	var out []model.NoteTag
	for _, t := range m.g.tags {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memTags) Delete(_ context.Context, tagID string) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	delete(m.g.tags, tagID)
	for _, rels := range m.g.tagRels {
		delete(rels, tagID)
	}
	return nil
}

func (m memTags) Attach(_ context.Context, noteID, tagID string, _ int64) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	if m.g.tagRels[noteID] == nil {
		m.g.tagRels[noteID] = map[string]bool{}
	}
	m.g.tagRels[noteID][tagID] = true
	return nil
}

func (m memTags) Detach(_ context.Context, noteID, tagID string) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	delete(m.g.tagRels[noteID], tagID)
	return nil
}

func (m memTags) ListByNote(_ context.Context, noteID string) ([]model.NoteTag, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	var out []model.NoteTag
	for tagID := range m.g.tagRels[noteID] {
		if t, ok := m.g.tags[tagID]; ok {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LinkStore

type memLinks struct{ g *memGraph }

func (m memLinks) Create(_ context.Context, link *model.NoteLink) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	key := link.SourceNoteID + "/" + link.TargetNoteID
	if _, ok := m.g.links[key]; ok {
		return appErr.ErrDuplicateLink
	}
	cp := *link
	m.g.links[key] = &cp
	return nil
}

func (m memLinks) Delete(_ context.Context, sourceID, targetID string) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	key := sourceID + "/" + targetID
	if _, ok := m.g.links[key]; !ok {
		return appErr.ErrNotFound
	}
	delete(m.g.links, key)
	return nil
}

func (m memLinks) ListForNote(_ context.Context, noteID string) ([]model.NoteLink, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	var out []model.NoteLink
	for _, l := range m.g.links {
		if l.SourceNoteID == noteID || l.TargetNoteID == noteID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CollaboratorStore

type memCollabs struct{ g *memGraph }

func (m memCollabs) Upsert(_ context.Context, c *model.NoteCollaborator) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	key := c.NoteID + "/" + c.UserID
	if cur, ok := m.g.collabs[key]; ok {
		cur.Permission = c.Permission
		return nil
	}
	cp := *c
	m.g.collabs[key] = &cp
	return nil
}

func (m memCollabs) Get(_ context.Context, noteID, userID string) (*model.NoteCollaborator, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	c, ok := m.g.collabs[noteID+"/"+userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCollabs) ListByNote(_ context.Context, noteID string) ([]model.NoteCollaborator, error) {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	var out []model.NoteCollaborator
	for _, c := range m.g.collabs {
		if c.NoteID == noteID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m memCollabs) Delete(_ context.Context, noteID, userID string) error {
	m.g.mu.Lock()
	defer m.g.mu.Unlock()
	delete(m.g.collabs, noteID+"/"+userID)
	return nil
}
