package repo

import (
	"context"
	"database/sql"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

type CollaboratorRepo struct {
	db *sql.DB
}

func NewCollaboratorRepo(db *sql.DB) *CollaboratorRepo {
	return &CollaboratorRepo{db: db}
}

// Upsert grants or re-grants a permission on the unique (note, user) pair.
func (r *CollaboratorRepo) Upsert(ctx context.Context, c *model.NoteCollaborator) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO note_collaborators (id, note_id, user_id, permission, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (note_id, user_id) DO UPDATE SET permission = EXCLUDED.permission
	`, c.ID, c.NoteID, c.UserID, c.Permission, c.Ctime)
	return err
}

func (r *CollaboratorRepo) Get(ctx context.Context, noteID, userID string) (*model.NoteCollaborator, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, note_id, user_id, permission, ctime
		FROM note_collaborators WHERE note_id = $1 AND user_id = $2
	`, noteID, userID)
	var c model.NoteCollaborator
	if err := row.Scan(&c.ID, &c.NoteID, &c.UserID, &c.Permission, &c.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepo) ListByNote(ctx context.Context, noteID string) ([]model.NoteCollaborator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, note_id, user_id, permission, ctime
		FROM note_collaborators WHERE note_id = $1 ORDER BY ctime
	`, noteID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.NoteCollaborator, 0)
	for rows.Next() {
		var c model.NoteCollaborator
		if err := rows.Scan(&c.ID, &c.NoteID, &c.UserID, &c.Permission, &c.Ctime); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *CollaboratorRepo) Delete(ctx context.Context, noteID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM note_collaborators WHERE note_id = $1 AND user_id = $2`, noteID, userID)
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
