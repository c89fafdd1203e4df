package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

type VersionRepo struct {
	db *sql.DB
}

func NewVersionRepo(db *sql.DB) *VersionRepo {
	return &VersionRepo{db: db}
}

func (r *VersionRepo) ListByNote(ctx context.Context, noteID string) ([]model.NoteVersion, error) {
	where := map[string]interface{}{
		"note_id":  noteID,
		"_orderby": "version desc",
	}
	sqlStr, args, err := builder.BuildSelect("note_versions", where, []string{
		"id", "note_id", "user_id", "version", "title", "content", "ctime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	versions := make([]model.NoteVersion, 0)
	for rows.Next() {
		var v model.NoteVersion
		if err := rows.Scan(&v.ID, &v.NoteID, &v.UserID, &v.Version, &v.Title, &v.Content, &v.Ctime); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *VersionRepo) GetByVersion(ctx context.Context, noteID string, version int) (*model.NoteVersion, error) {
	where := map[string]interface{}{
		"note_id": noteID,
		"version": version,
	}
	sqlStr, args, err := builder.BuildSelect("note_versions", where, []string{
		"id", "note_id", "user_id", "version", "title", "content", "ctime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var v model.NoteVersion
	if err := rows.Scan(&v.ID, &v.NoteID, &v.UserID, &v.Version, &v.Title, &v.Content, &v.Ctime); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VersionRepo) GetByID(ctx context.Context, id string) (*model.NoteVersion, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("note_versions", where, []string{
		"id", "note_id", "user_id", "version", "title", "content", "ctime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var v model.NoteVersion
	if err := rows.Scan(&v.ID, &v.NoteID, &v.UserID, &v.Version, &v.Title, &v.Content, &v.Ctime); err != nil {
		return nil, err
	}
	return &v, nil
}
