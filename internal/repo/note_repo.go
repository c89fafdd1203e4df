package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

var noteFields = []string{
	"id", "user_id", "folder_id", "title", "content", "version",
	"previous_version_id", "parent_note_id", "linked_document_id",
	"linked_chat_session_id", "locked_by", "locked_at", "word_count",
	"char_count", "read_time_minutes", "ctime", "mtime",
}

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, note *model.Note, snapshot *model.NoteVersion) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		data := map[string]interface{}{
			"id":                     note.ID,
			"user_id":                note.UserID,
			"folder_id":              nullable(note.FolderID),
			"title":                  note.Title,
			"content":                note.Content,
			"version":                note.Version,
			"previous_version_id":    nullable(note.PreviousVersionID),
			"parent_note_id":         nullable(note.ParentNoteID),
			"linked_document_id":     nullable(note.LinkedDocumentID),
			"linked_chat_session_id": nullable(note.LinkedChatSessionID),
			"locked_by":              note.LockedBy,
			"locked_at":              note.LockedAt,
			"word_count":             note.WordCount,
			"char_count":             note.CharCount,
			"read_time_minutes":      note.ReadTimeMinutes,
			"ctime":                  note.Ctime,
			"mtime":                  note.Mtime,
		}
		sqlStr, args, err := builder.BuildInsert("notes", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		return insertVersion(ctx, tx, snapshot)
	})
}

func (r *NoteRepo) GetByID(ctx context.Context, noteID string) (*model.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(folder_id, ''), title, content, version,
		       COALESCE(previous_version_id, ''), COALESCE(parent_note_id, ''),
		       COALESCE(linked_document_id, ''), COALESCE(linked_chat_session_id, ''),
		       locked_by, locked_at, word_count, char_count, read_time_minutes,
		       ctime, mtime
		FROM notes WHERE id = $1
	`, noteID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var n model.Note
	if err := scanNote(rows, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepo) ListByUser(ctx context.Context, userID string, limit, offset uint) ([]model.Note, error) {
	lim := ""
	args := []interface{}{userID}
	if limit > 0 {
		lim = " LIMIT $2 OFFSET $3"
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(folder_id, ''), title, content, version,
		       COALESCE(previous_version_id, ''), COALESCE(parent_note_id, ''),
		       COALESCE(linked_document_id, ''), COALESCE(linked_chat_session_id, ''),
		       locked_by, locked_at, word_count, char_count, read_time_minutes,
		       ctime, mtime
		FROM notes WHERE user_id = $1 ORDER BY mtime DESC`+lim, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	notes := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		if err := scanNote(rows, &n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// UpdateContent bumps the version, chains previous_version_id to the prior
// snapshot and appends the new snapshot, atomically. The WHERE version guard
// makes concurrent editors lose cleanly instead of overwriting each other.
func (r *NoteRepo) UpdateContent(ctx context.Context, note *model.Note, prevSnapshotID string, snapshot *model.NoteVersion, keepVersions int) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE notes
			SET title = $1, content = $2, version = $3, previous_version_id = $4,
			    word_count = $5, char_count = $6, read_time_minutes = $7, mtime = $8
			WHERE id = $9 AND version = $10
		`, note.Title, note.Content, note.Version, nullable(prevSnapshotID),
			note.WordCount, note.CharCount, note.ReadTimeMinutes, note.Mtime,
			note.ID, note.Version-1)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return appErr.ErrConflict
		}
		if err := insertVersion(ctx, tx, snapshot); err != nil {
			return err
		}
		return pruneVersions(ctx, tx, note.ID, keepVersions)
	})
}

// Lock acquires the advisory edit lock. A lock held by the same user is
// re-entrant; one whose locked_at predates staleBefore is treated as free.
func (r *NoteRepo) Lock(ctx context.Context, noteID, userID string, now, staleBefore int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notes SET locked_by = $1, locked_at = $2
		WHERE id = $3 AND (locked_by = '' OR locked_by = $1 OR locked_at < $4)
	`, userID, now, noteID, staleBefore)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *NoteRepo) Unlock(ctx context.Context, noteID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notes SET locked_by = '', locked_at = 0
		WHERE id = $1 AND locked_by = $2
	`, noteID, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *NoteRepo) ForceUnlock(ctx context.Context, noteID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notes SET locked_by = '', locked_at = 0 WHERE id = $1`, noteID)
	return err
}

// ReleaseStaleLocks frees advisory locks abandoned before cutoff.
func (r *NoteRepo) ReleaseStaleLocks(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notes SET locked_by = '', locked_at = 0
		WHERE locked_by <> '' AND locked_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NoteRepo) SetFolder(ctx context.Context, noteID, folderID string, mtime int64) error {
	return r.setRef(ctx, noteID, "folder_id", folderID, mtime)
}

func (r *NoteRepo) SetParent(ctx context.Context, noteID, parentID string, mtime int64) error {
	return r.setRef(ctx, noteID, "parent_note_id", parentID, mtime)
}

func (r *NoteRepo) setRef(ctx context.Context, noteID, column, value string, mtime int64) error {
	update := map[string]interface{}{
		column:  nullable(value),
		"mtime": mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("notes", map[string]interface{}{"id": noteID}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// IsDescendant reports whether candidate sits in the parent/child subtree
// rooted at rootID (rootID itself included).
func (r *NoteRepo) IsDescendant(ctx context.Context, rootID, candidate string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM notes WHERE id = $1
			UNION ALL
			SELECT n.id FROM notes n JOIN subtree s ON n.parent_note_id = s.id
		)
		SELECT COUNT(1) FROM subtree WHERE id = $2
	`, rootID, candidate)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the note and its whole child subtree. Tag relations,
// collaborator grants, version snapshots and links go with it through the
// schema's cascades; linked documents and chat sessions are left untouched.
func (r *NoteRepo) Delete(ctx context.Context, noteID string) error {
	res, err := r.db.ExecContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM notes WHERE id = $1
			UNION ALL
			SELECT n.id FROM notes n JOIN subtree s ON n.parent_note_id = s.id
		)
		DELETE FROM notes WHERE id IN (SELECT id FROM subtree)
	`, noteID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, v *model.NoteVersion) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO note_versions (id, note_id, user_id, version, title, content, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.NoteID, v.UserID, v.Version, v.Title, v.Content, v.Ctime)
	return err
}

func pruneVersions(ctx context.Context, tx *sql.Tx, noteID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM note_versions
		WHERE note_id = $1
		  AND id NOT IN (
			SELECT id FROM note_versions
			WHERE note_id = $2
			ORDER BY version DESC
			LIMIT $3
		  )
	`, noteID, noteID, keep)
	return err
}

func scanNote(rows *sql.Rows, n *model.Note) error {
	return rows.Scan(
		&n.ID, &n.UserID, &n.FolderID, &n.Title, &n.Content, &n.Version,
		&n.PreviousVersionID, &n.ParentNoteID, &n.LinkedDocumentID,
		&n.LinkedChatSessionID, &n.LockedBy, &n.LockedAt, &n.WordCount,
		&n.CharCount, &n.ReadTimeMinutes, &n.Ctime, &n.Mtime,
	)
}

// nullable maps an empty string to SQL NULL so foreign keys stay honest.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
