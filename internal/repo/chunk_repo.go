package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceAll swaps the full chunk set of a document and keeps chunk_count in
// step, in one transaction. Chunks must already carry contiguous indices
// starting at 0.
func (r *ChunkRepo) ReplaceAll(ctx context.Context, docID string, chunks []model.DocumentChunk) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID); err != nil {
			return err
		}
		const insert = `
			INSERT INTO document_chunks
				(id, document_id, chunk_index, content, content_hash, vector_id,
				 token_count, char_count, page_number, section_title, ctime)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		for _, c := range chunks {
			if _, err := tx.ExecContext(ctx, insert,
				c.ID, docID, c.ChunkIndex, c.Content, c.ContentHash, c.VectorID,
				c.TokenCount, c.CharCount, c.PageNumber, c.SectionTitle, c.Ctime,
			); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE documents SET chunk_count = $1 WHERE id = $2`, len(chunks), docID)
		return err
	})
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, docID string) ([]model.DocumentChunk, error) {
	where := map[string]interface{}{
		"document_id": docID,
		"_orderby":    "chunk_index asc",
	}
	sqlStr, args, err := builder.BuildSelect("document_chunks", where, []string{
		"id", "document_id", "chunk_index", "content", "content_hash", "vector_id",
		"token_count", "char_count", "page_number", "section_title", "ctime",
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
	chunks := make([]model.DocumentChunk, 0)
	for rows.Next() {
		var c model.DocumentChunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.ContentHash,
			&c.VectorID, &c.TokenCount, &c.CharCount, &c.PageNumber, &c.SectionTitle, &c.Ctime); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetByIDs fetches chunks by id, in no particular order.
func (r *ChunkRepo) GetByIDs(ctx context.Context, ids []string) ([]model.DocumentChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"id in": ids,
	}
	sqlStr, args, err := builder.BuildSelect("document_chunks", where, []string{
		"id", "document_id", "chunk_index", "content", "content_hash", "vector_id",
		"token_count", "char_count", "page_number", "section_title", "ctime",
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
	chunks := make([]model.DocumentChunk, 0, len(ids))
	for rows.Next() {
		var c model.DocumentChunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.ContentHash,
			&c.VectorID, &c.TokenCount, &c.CharCount, &c.PageNumber, &c.SectionTitle, &c.Ctime); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) ListVectorIDs(ctx context.Context, docID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT vector_id FROM document_chunks WHERE document_id = $1 AND vector_id <> ''`, docID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByDocument removes all chunks and zeroes chunk_count in one
// transaction. Vectors must be deleted from the index before calling this.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, docID string) error {
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE documents SET chunk_count = 0 WHERE id = $1`, docID)
		return err
	})
}
