// Package chat keeps per-user conversation sessions and answers questions
// over the owner's indexed documents.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/ai"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/config"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/index"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/ids"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type SessionStore interface {
	CreateSession(ctx context.Context, s *model.ChatSession) error
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error)
	SetArchived(ctx context.Context, sessionID string, archived int, mtime int64) error
	SetPinned(ctx context.Context, sessionID string, pinned int, mtime int64) error
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	RateMessage(ctx context.Context, messageID string, rating int, feedback string) error
}

type ChunkReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.DocumentChunk, error)
}

// Answerer is the slice of *ai.Manager the chat flow needs.
type Answerer interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	Answer(ctx context.Context, question string, contextChunks []string) (string, error)
	ModelName() string
}

type Service struct {
	cfg      config.RetrievalConfig
	sessions SessionStore
	chunks   ChunkReader
	idx      index.Index
	ai       Answerer
}

func NewService(cfg config.RetrievalConfig, sessions SessionStore, chunks ChunkReader, idx index.Index, answerer Answerer) *Service {
	return &Service{
		cfg:      cfg,
		sessions: sessions,
		chunks:   chunks,
		idx:      idx,
		ai:       answerer,
	}
}

func (s *Service) CreateSession(ctx context.Context, userID, title string) (*model.ChatSession, error) {
	now := timeutil.NowMilli()
	session := &model.ChatSession{
		ID:     ids.New(),
		UserID: userID,
		Title:  title,
		Ctime:  now,
		Mtime:  now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	return s.sessions.ListSessions(ctx, userID)
}

func (s *Service) SetArchived(ctx context.Context, userID, sessionID string, archived bool) error {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessions.SetArchived(ctx, sessionID, boolToInt(archived), timeutil.NowMilli())
}

func (s *Service) SetPinned(ctx context.Context, userID, sessionID string, pinned bool) error {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessions.SetPinned(ctx, sessionID, boolToInt(pinned), timeutil.NowMilli())
}

// AppendMessage adds a message to an active session and bumps
// last_message_at. Archived sessions reject writes.
func (s *Service) AppendMessage(ctx context.Context, userID, sessionID, role, content string) (*model.ChatMessage, error) {
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("%w: role %q", appErr.ErrInvalid, role)
	}
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsArchived != 0 {
		return nil, appErr.ErrSessionArchived
	}
	msg := &model.ChatMessage{
		ID:        ids.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Ctime:     timeutil.NowMilli(),
	}
	if err := s.sessions.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, userID, sessionID string) ([]model.ChatMessage, error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.sessions.ListMessages(ctx, sessionID)
}

func (s *Service) Rate(ctx context.Context, userID, sessionID, messageID string, rating int, feedback string) error {
	if rating < -1 || rating > 1 {
		return fmt.Errorf("%w: rating %d", appErr.ErrInvalid, rating)
	}
	messages, err := s.ListMessages(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	for _, m := range messages {
		if m.ID == messageID {
			return s.sessions.RateMessage(ctx, messageID, rating, feedback)
		}
	}
	return appErr.ErrNotFound
}

// Ask runs the retrieval-augmented answer flow: the question is logged as
// a user message, embedded, matched against the caller's own vectors, and
// the generated answer is appended citing the chunks it was grounded on.
func (s *Service) Ask(ctx context.Context, userID, sessionID, question string) (*model.ChatMessage, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", appErr.ErrInvalid)
	}
	if _, err := s.AppendMessage(ctx, userID, sessionID, model.RoleUser, question); err != nil {
		return nil, err
	}

	logger := logutil.GetLogger(ctx).With(
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
	)
	start := time.Now()

	embedding, err := s.ai.Embed(ctx, question, ai.TaskRetrievalQuery)
	if err != nil {
		logger.Error("embed question failed", zap.Error(err))
		return nil, fmt.Errorf("embed question: %w", err)
	}
	matches, err := s.idx.Query(ctx, userID, embedding, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	var chunkIDs []string
	for _, m := range matches {
		if m.Score >= s.cfg.SimilarityThreshold {
			chunkIDs = append(chunkIDs, m.ChunkID)
		}
	}
	chunks, err := s.chunks.GetByIDs(ctx, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	contexts := make([]string, 0, len(chunks))
	sources := make(map[string]string, len(chunks))
	for _, c := range chunks {
		contexts = append(contexts, c.Content)
		sources[c.ID] = c.DocumentID
	}
	logger.Debug("retrieval done",
		zap.Int("matches", len(matches)),
		zap.Int("above_threshold", len(chunks)),
	)

	answer, err := s.ai.Answer(ctx, question, contexts)
	if err != nil {
		logger.Error("generate answer failed", zap.Error(err))
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	msg := &model.ChatMessage{
		ID:             ids.New(),
		SessionID:      sessionID,
		Role:           model.RoleAssistant,
		Content:        answer,
		Sources:        sources,
		ModelUsed:      s.ai.ModelName(),
		TokensUsed:     ai.EstimateTokens(question + answer),
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Ctime:          timeutil.NowMilli(),
	}
	if err := s.sessions.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
