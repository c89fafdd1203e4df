package repo

import (
	"context"
	"database/sql"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

type FolderRepo struct {
	db *sql.DB
}

func NewFolderRepo(db *sql.DB) *FolderRepo {
	return &FolderRepo{db: db}
}

func (r *FolderRepo) Create(ctx context.Context, folder *model.NoteFolder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO note_folders (id, user_id, name, parent_folder_id, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, folder.ID, folder.UserID, folder.Name, nullable(folder.ParentFolderID), folder.Ctime, folder.Mtime)
	if dbutil.IsUniqueViolation(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *FolderRepo) GetByID(ctx context.Context, folderID string) (*model.NoteFolder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, COALESCE(parent_folder_id, ''), ctime, mtime
		FROM note_folders WHERE id = $1
	`, folderID)
	var f model.NoteFolder
	if err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.ParentFolderID, &f.Ctime, &f.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FolderRepo) ListByUser(ctx context.Context, userID string) ([]model.NoteFolder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, COALESCE(parent_folder_id, ''), ctime, mtime
		FROM note_folders WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	folders := make([]model.NoteFolder, 0)
	for rows.Next() {
		var f model.NoteFolder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.ParentFolderID, &f.Ctime, &f.Mtime); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *FolderRepo) Rename(ctx context.Context, folderID, name string, mtime int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE note_folders SET name = $1, mtime = $2 WHERE id = $3`, name, mtime, folderID)
	if dbutil.IsUniqueViolation(err) {
		return appErr.ErrConflict
	}
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

func (r *FolderRepo) SetParent(ctx context.Context, folderID, parentID string, mtime int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE note_folders SET parent_folder_id = $1, mtime = $2 WHERE id = $3`,
		nullable(parentID), mtime, folderID)
	if dbutil.IsUniqueViolation(err) {
		return appErr.ErrConflict
	}
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

// IsDescendant reports whether candidate lies in the subtree rooted at
// rootID, rootID itself included.
func (r *FolderRepo) IsDescendant(ctx context.Context, rootID, candidate string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM note_folders WHERE id = $1
			UNION ALL
			SELECT f.id FROM note_folders f JOIN subtree s ON f.parent_folder_id = s.id
		)
		SELECT COUNT(1) FROM subtree WHERE id = $2
	`, rootID, candidate)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FolderRepo) Delete(ctx context.Context, folderID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM note_folders WHERE id = $1`, folderID)
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
