// Package index stores chunk embeddings and answers user-scoped
// nearest-neighbor queries over them.
package index

import "context"

type Entry struct {
	VectorID   string
	UserID     string
	DocumentID string
	ChunkID    string
	Embedding  []float32
	Ctime      int64
}

type Match struct {
	VectorID   string
	DocumentID string
	ChunkID    string
	Score      float64
}

type Index interface {
	Upsert(ctx context.Context, entry *Entry) error
	// Query ranks the caller's own vectors by cosine similarity, newest
	// first among ties, and returns the k best matches.
	Query(ctx context.Context, userID string, embedding []float32, k int) ([]Match, error)
	Delete(ctx context.Context, vectorIDs []string) error
	DeleteByDocument(ctx context.Context, documentID string) error
}
