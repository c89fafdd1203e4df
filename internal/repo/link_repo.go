package repo

import (
	"context"
	"database/sql"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

type LinkRepo struct {
	db *sql.DB
}

func NewLinkRepo(db *sql.DB) *LinkRepo {
	return &LinkRepo{db: db}
}

func (r *LinkRepo) Create(ctx context.Context, link *model.NoteLink) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO note_links (id, source_note_id, target_note_id, link_type, ctime)
		VALUES ($1, $2, $3, $4, $5)
	`, link.ID, link.SourceNoteID, link.TargetNoteID, link.LinkType, link.Ctime)
	if dbutil.IsUniqueViolation(err) {
		return appErr.ErrDuplicateLink
	}
	return err
}

func (r *LinkRepo) Delete(ctx context.Context, sourceID, targetID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM note_links WHERE source_note_id = $1 AND target_note_id = $2`, sourceID, targetID)
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

// ListForNote returns both outbound and inbound edges of a note.
func (r *LinkRepo) ListForNote(ctx context.Context, noteID string) ([]model.NoteLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_note_id, target_note_id, link_type, ctime
		FROM note_links
		WHERE source_note_id = $1 OR target_note_id = $1
		ORDER BY ctime
	`, noteID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanLinks(rows)
}

func scanLinks(rows *sql.Rows) ([]model.NoteLink, error) {
	links := make([]model.NoteLink, 0)
	for rows.Next() {
		var l model.NoteLink
		if err := rows.Scan(&l.ID, &l.SourceNoteID, &l.TargetNoteID, &l.LinkType, &l.Ctime); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
