package index

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a process-local Index doing brute-force cosine scans.
// It backs single-node deployments without pgvector and the package tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]*Entry)}
}

func (x *MemoryIndex) Upsert(ctx context.Context, entry *Entry) error {
	_ = ctx
	clone := *entry
	clone.Embedding = append([]float32(nil), entry.Embedding...)
	x.mu.Lock()
	x.entries[entry.VectorID] = &clone
	x.mu.Unlock()
	return nil
}

func (x *MemoryIndex) Query(ctx context.Context, userID string, embedding []float32, k int) ([]Match, error) {
	_ = ctx
	if k <= 0 {
		return []Match{}, nil
	}
	x.mu.RLock()
	matches := make([]Match, 0, len(x.entries))
	ctimes := make(map[string]int64, len(x.entries))
	for _, e := range x.entries {
		if e.UserID != userID {
			continue
		}
		matches = append(matches, Match{
			VectorID:   e.VectorID,
			DocumentID: e.DocumentID,
			ChunkID:    e.ChunkID,
			Score:      CosineSimilarity(embedding, e.Embedding),
		})
		ctimes[e.VectorID] = e.Ctime
	}
	x.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return ctimes[matches[i].VectorID] > ctimes[matches[j].VectorID]
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func (x *MemoryIndex) Delete(ctx context.Context, vectorIDs []string) error {
	_ = ctx
	x.mu.Lock()
	for _, id := range vectorIDs {
		delete(x.entries, id)
	}
	x.mu.Unlock()
	return nil
}

func (x *MemoryIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_ = ctx
	x.mu.Lock()
	for id, e := range x.entries {
		if e.DocumentID == documentID {
			delete(x.entries, id)
		}
	}
	x.mu.Unlock()
	return nil
}

func (x *MemoryIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
