package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/config"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/index"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession
	messages map[string][]model.ChatMessage
}

func newMemSessions() *memSessions {
	return &memSessions{
		sessions: map[string]*model.ChatSession{},
		messages: map[string][]model.ChatMessage{},
	}
}

func (m *memSessions) CreateSession(_ context.Context, s *model.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) GetSession(_ context.Context, sessionID string) (*model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListSessions(_ context.Context, userID string) ([]model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSessions) SetArchived(_ context.Context, sessionID string, archived int, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return appErr.ErrNotFound
	}
	s.IsArchived = archived
	s.Mtime = mtime
	return nil
}

func (m *memSessions) SetPinned(_ context.Context, sessionID string, pinned int, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return appErr.ErrNotFound
	}
	s.IsPinned = pinned
	s.Mtime = mtime
	return nil
}

func (m *memSessions) AppendMessage(_ context.Context, msg *model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[msg.SessionID]
	if !ok {
		return appErr.ErrNotFound
	}
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], *msg)
	s.LastMessageAt = msg.Ctime
	return nil
}

func (m *memSessions) ListMessages(_ context.Context, sessionID string) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ChatMessage(nil), m.messages[sessionID]...), nil
}

func (m *memSessions) RateMessage(_ context.Context, messageID string, rating int, feedback string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, msgs := range m.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				m.messages[sid][i].Rating = rating
				m.messages[sid][i].Feedback = feedback
				return nil
			}
		}
	}
	return appErr.ErrNotFound
}

type memChunks struct {
	chunks map[string]model.DocumentChunk
}

func (m *memChunks) GetByIDs(_ context.Context, ids []string) ([]model.DocumentChunk, error) {
	var out []model.DocumentChunk
	for _, id := range ids {
		if c, ok := m.chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type scriptedAI struct {
	answer    string
	answerErr error
	contexts  []string
}

func (a *scriptedAI) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	vec := make([]float32, 4)
	for i, r := range text {
		vec[i%4] += float32(r)
	}
	return vec, nil
}

func (a *scriptedAI) Answer(_ context.Context, _ string, contexts []string) (string, error) {
	a.contexts = contexts
	if a.answerErr != nil {
		return "", a.answerErr
	}
	return a.answer, nil
}

func (a *scriptedAI) ModelName() string { return "scripted-model" }

func newTestService(threshold float64) (*Service, *memSessions, *memChunks, *index.MemoryIndex, *scriptedAI) {
	sessions := newMemSessions()
	chunks := &memChunks{chunks: map[string]model.DocumentChunk{}}
	idx := index.NewMemoryIndex()
	answerer := &scriptedAI{answer: "the answer"}
	cfg := config.RetrievalConfig{TopK: 3, SimilarityThreshold: threshold}
	svc := NewService(cfg, sessions, chunks, idx, answerer)
	return svc, sessions, chunks, idx, answerer
}

func seedChunk(chunks *memChunks, idx *index.MemoryIndex, answerer *scriptedAI, userID, docID, chunkID, content string) {
	chunks.chunks[chunkID] = model.DocumentChunk{
		ID:         chunkID,
		DocumentID: docID,
		Content:    content,
		VectorID:   "v-" + chunkID,
	}
	embedding, _ := answerer.Embed(context.Background(), content, "")
	_ = idx.Upsert(context.Background(), &index.Entry{
		VectorID:   "v-" + chunkID,
		UserID:     userID,
		DocumentID: docID,
		ChunkID:    chunkID,
		Embedding:  embedding,
	})
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, _, _, _ := newTestService(0)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "u1", "research")
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, "u2", session.ID)
	assert.ErrorIs(t, err, appErr.ErrNotFound)

	msg, err := svc.AppendMessage(ctx, "u1", session.ID, model.RoleUser, "hello")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, msg.Role)

	got, err := svc.GetSession(ctx, "u1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Ctime, got.LastMessageAt)

	_, err = svc.AppendMessage(ctx, "u1", session.ID, "bot", "hi")
	assert.ErrorIs(t, err, appErr.ErrInvalid)

	require.NoError(t, svc.SetArchived(ctx, "u1", session.ID, true))
	_, err = svc.AppendMessage(ctx, "u1", session.ID, model.RoleUser, "anyone there")
	assert.ErrorIs(t, err, appErr.ErrSessionArchived)

	require.NoError(t, svc.SetArchived(ctx, "u1", session.ID, false))
	_, err = svc.AppendMessage(ctx, "u1", session.ID, model.RoleUser, "back again")
	require.NoError(t, err)

	require.NoError(t, svc.SetPinned(ctx, "u1", session.ID, true))
	sessions, err := svc.ListSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].IsPinned)
}

func TestAskCitesSources(t *testing.T) {
	svc, _, chunks, idx, answerer := newTestService(-1)
	ctx := context.Background()

	seedChunk(chunks, idx, answerer, "u1", "doc1", "c1", "go is a statically typed language")
	seedChunk(chunks, idx, answerer, "u1", "doc1", "c2", "postgres stores vectors with pgvector")
	seedChunk(chunks, idx, answerer, "u2", "doc9", "c9", "someone else's secret")

	session, err := svc.CreateSession(ctx, "u1", "q&a")
	require.NoError(t, err)

	msg, err := svc.Ask(ctx, "u1", session.ID, "what is go")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, "the answer", msg.Content)
	assert.Equal(t, "scripted-model", msg.ModelUsed)
	assert.Positive(t, msg.TokensUsed)
	assert.Len(t, msg.Sources, 2)
	assert.NotContains(t, msg.Sources, "c9")
	assert.Len(t, answerer.contexts, 2)

	messages, err := svc.ListMessages(ctx, "u1", session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, "what is go", messages[0].Content)
}

func TestAskThresholdFiltersWeakMatches(t *testing.T) {
	svc, _, chunks, idx, answerer := newTestService(1.1)
	ctx := context.Background()
	seedChunk(chunks, idx, answerer, "u1", "doc1", "c1", "completely unrelated content")

	session, err := svc.CreateSession(ctx, "u1", "q&a")
	require.NoError(t, err)

	msg, err := svc.Ask(ctx, "u1", session.ID, "what is go")
	require.NoError(t, err)
	assert.Empty(t, msg.Sources)
	assert.Empty(t, answerer.contexts)
}

func TestAskGeneratorFailure(t *testing.T) {
	svc, _, _, _, answerer := newTestService(0)
	answerer.answerErr = fmt.Errorf("model offline")
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "u1", "q&a")
	require.NoError(t, err)

	_, err = svc.Ask(ctx, "u1", session.ID, "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")

	// the user's question is still on the log
	messages, err := svc.ListMessages(ctx, "u1", session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.RoleUser, messages[0].Role)
}

func TestRate(t *testing.T) {
	svc, _, _, _, _ := newTestService(0)
	ctx := context.Background()
	session, err := svc.CreateSession(ctx, "u1", "q&a")
	require.NoError(t, err)
	msg, err := svc.AppendMessage(ctx, "u1", session.ID, model.RoleAssistant, "reply")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Rate(ctx, "u1", session.ID, msg.ID, 5, ""), appErr.ErrInvalid)
	assert.ErrorIs(t, svc.Rate(ctx, "u1", session.ID, "missing", 1, ""), appErr.ErrNotFound)
	require.NoError(t, svc.Rate(ctx, "u1", session.ID, msg.ID, 1, "helpful"))

	messages, err := svc.ListMessages(ctx, "u1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, messages[0].Rating)
	assert.Equal(t, "helpful", messages[0].Feedback)
}
