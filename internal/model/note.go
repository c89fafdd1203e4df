package model

const (
	LinkTypeRelated    = "related"
	LinkTypeReferenced = "referenced"
	LinkTypeParent     = "parent"
	LinkTypeChild      = "child"
)

const (
	PermissionView    = "view"
	PermissionComment = "comment"
	PermissionEdit    = "edit"
	PermissionAdmin   = "admin"
)

type Note struct {
	ID                  string `json:"id"`
	UserID              string `json:"user_id"`
	FolderID            string `json:"folder_id"`
	Title               string `json:"title"`
	Content             string `json:"content"`
	Version             int    `json:"version"`
	PreviousVersionID   string `json:"previous_version_id"`
	ParentNoteID        string `json:"parent_note_id"`
	LinkedDocumentID    string `json:"linked_document_id"`
	LinkedChatSessionID string `json:"linked_chat_session_id"`
	LockedBy            string `json:"locked_by"`
	LockedAt            int64  `json:"locked_at"`
	WordCount           int    `json:"word_count"`
	CharCount           int    `json:"char_count"`
	ReadTimeMinutes     int    `json:"read_time_minutes"`
	Ctime               int64  `json:"ctime"`
	Mtime               int64  `json:"mtime"`
}

// NoteVersion is an immutable snapshot appended on every content edit.
type NoteVersion struct {
	ID      string `json:"id"`
	NoteID  string `json:"note_id"`
	UserID  string `json:"user_id"`
	Version int    `json:"version"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Ctime   int64  `json:"ctime"`
}

type NoteFolder struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	ParentFolderID string `json:"parent_folder_id"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}

type NoteTag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Ctime  int64  `json:"ctime"`
}

type NoteLink struct {
	ID           string `json:"id"`
	SourceNoteID string `json:"source_note_id"`
	TargetNoteID string `json:"target_note_id"`
	LinkType     string `json:"link_type"`
	Ctime        int64  `json:"ctime"`
}

type NoteCollaborator struct {
	ID         string `json:"id"`
	NoteID     string `json:"note_id"`
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
	Ctime      int64  `json:"ctime"`
}

var permissionRank = map[string]int{
	PermissionView:    1,
	PermissionComment: 2,
	PermissionEdit:    3,
	PermissionAdmin:   4,
}

// PermissionAtLeast reports whether got grants at least want
// under the view < comment < edit < admin ordering.
func PermissionAtLeast(got, want string) bool {
	return permissionRank[got] >= permissionRank[want] && permissionRank[got] > 0
}

func ValidPermission(p string) bool {
	return permissionRank[p] > 0
}

func ValidLinkType(t string) bool {
	switch t {
	case LinkTypeRelated, LinkTypeReferenced, LinkTypeParent, LinkTypeChild:
		return true
	}
	return false
}
