package repo

import (
	"context"
	"database/sql"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) Create(ctx context.Context, tag *model.NoteTag) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO note_tags (id, user_id, name, ctime)
		VALUES ($1, $2, $3, $4)
	`, tag.ID, tag.UserID, tag.Name, tag.Ctime)
	if dbutil.IsUniqueViolation(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *TagRepo) GetByName(ctx context.Context, userID, name string) (*model.NoteTag, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, ctime FROM note_tags WHERE user_id = $1 AND name = $2`, userID, name)
	var t model.NoteTag
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) ListByUser(ctx context.Context, userID string) ([]model.NoteTag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, ctime FROM note_tags WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tags := make([]model.NoteTag, 0)
	for rows.Next() {
		var t model.NoteTag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Ctime); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *TagRepo) Delete(ctx context.Context, tagID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM note_tags WHERE id = $1`, tagID)
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

func (r *TagRepo) Attach(ctx context.Context, noteID, tagID string, ctime int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO note_tag_relations (note_id, tag_id, ctime)
		VALUES ($1, $2, $3)
		ON CONFLICT (note_id, tag_id) DO NOTHING
	`, noteID, tagID, ctime)
	return err
}

func (r *TagRepo) Detach(ctx context.Context, noteID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM note_tag_relations WHERE note_id = $1 AND tag_id = $2`, noteID, tagID)
	return err
}

func (r *TagRepo) ListByNote(ctx context.Context, noteID string) ([]model.NoteTag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name, t.ctime
		FROM note_tags t
		JOIN note_tag_relations rel ON rel.tag_id = t.id
		WHERE rel.note_id = $1
		ORDER BY t.name
	`, noteID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tags := make([]model.NoteTag, 0)
	for rows.Next() {
		var t model.NoteTag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Ctime); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
