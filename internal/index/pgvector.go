package index

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex keeps chunk vectors in a postgres table with a pgvector
// column and lets the database do the ranking.
type PgvectorIndex struct {
	db *sql.DB
}

func NewPgvectorIndex(db *sql.DB) *PgvectorIndex {
	return &PgvectorIndex{db: db}
}

func (x *PgvectorIndex) Upsert(ctx context.Context, entry *Entry) error {
	const query = `
		INSERT INTO chunk_vectors (vector_id, user_id, document_id, chunk_id, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vector_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			document_id = EXCLUDED.document_id,
			chunk_id = EXCLUDED.chunk_id,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := x.db.ExecContext(ctx, query,
		entry.VectorID, entry.UserID, entry.DocumentID, entry.ChunkID,
		pgvector.NewVector(entry.Embedding), entry.Ctime)
	return err
}

func (x *PgvectorIndex) Query(ctx context.Context, userID string, embedding []float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}
	// <=> is cosine distance, so similarity is 1 - distance.
	const query = `
		SELECT vector_id, document_id, chunk_id, 1 - (embedding <=> $1) AS score
		FROM chunk_vectors
		WHERE user_id = $2
		ORDER BY embedding <=> $1 ASC, ctime DESC
		LIMIT $3
	`
	rows, err := x.db.QueryContext(ctx, query, pgvector.NewVector(embedding), userID, k)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	matches := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.VectorID, &m.DocumentID, &m.ChunkID, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (x *PgvectorIndex) Delete(ctx context.Context, vectorIDs []string) error {
	if len(vectorIDs) == 0 {
		return nil
	}
	_, err := x.db.ExecContext(ctx,
		`DELETE FROM chunk_vectors WHERE vector_id = ANY($1)`, pq.Array(vectorIDs))
	return err
}

func (x *PgvectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := x.db.ExecContext(ctx,
		`DELETE FROM chunk_vectors WHERE document_id = $1`, documentID)
	return err
}

// ListOrphans returns vectors whose chunk row no longer exists. The
// reconcile job sweeps these up if a delete ever half-failed.
func (x *PgvectorIndex) ListOrphans(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT v.vector_id
		FROM chunk_vectors v
		LEFT JOIN document_chunks c ON c.id = v.chunk_id
		WHERE c.id IS NULL
		LIMIT $1
	`
	rows, err := x.db.QueryContext(ctx, query, limit)
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
