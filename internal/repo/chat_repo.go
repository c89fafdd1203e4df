package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) CreateSession(ctx context.Context, s *model.ChatSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, is_archived, is_pinned, last_message_at, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.UserID, s.Title, s.IsArchived, s.IsPinned, s.LastMessageAt, s.Ctime, s.Mtime)
	return err
}

func (r *ChatRepo) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, is_archived, is_pinned, last_message_at, ctime, mtime
		FROM chat_sessions WHERE id = $1
	`, sessionID)
	var s model.ChatSession
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.IsArchived, &s.IsPinned,
		&s.LastMessageAt, &s.Ctime, &s.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ChatRepo) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, is_archived, is_pinned, last_message_at, ctime, mtime
		FROM chat_sessions WHERE user_id = $1
		ORDER BY is_pinned DESC, last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	sessions := make([]model.ChatSession, 0)
	for rows.Next() {
		var s model.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.IsArchived, &s.IsPinned,
			&s.LastMessageAt, &s.Ctime, &s.Mtime); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *ChatRepo) SetArchived(ctx context.Context, sessionID string, archived int, mtime int64) error {
	return r.updateSession(ctx, sessionID,
		`UPDATE chat_sessions SET is_archived = $1, mtime = $2 WHERE id = $3`, archived, mtime, sessionID)
}

func (r *ChatRepo) SetPinned(ctx context.Context, sessionID string, pinned int, mtime int64) error {
	return r.updateSession(ctx, sessionID,
		`UPDATE chat_sessions SET is_pinned = $1, mtime = $2 WHERE id = $3`, pinned, mtime, sessionID)
}

func (r *ChatRepo) updateSession(ctx context.Context, sessionID, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

// AppendMessage inserts the message and bumps the session's last_message_at
// as one transaction, preserving the append-only ordering guarantee.
func (r *ChatRepo) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	var sources interface{}
	if len(msg.Sources) > 0 {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return err
		}
		sources = data
	}
	return dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_messages
				(id, session_id, role, content, sources, model_used, tokens_used,
				 response_time_ms, rating, feedback, ctime)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, msg.ID, msg.SessionID, msg.Role, msg.Content, sources, msg.ModelUsed,
			msg.TokensUsed, msg.ResponseTimeMs, msg.Rating, msg.Feedback, msg.Ctime); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE chat_sessions SET last_message_at = $1, mtime = $1 WHERE id = $2`,
			msg.Ctime, msg.SessionID)
		return err
	})
}

func (r *ChatRepo) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, sources, model_used, tokens_used,
		       response_time_ms, rating, feedback, ctime
		FROM chat_messages WHERE session_id = $1 ORDER BY ctime, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	msgs := make([]model.ChatMessage, 0)
	for rows.Next() {
		var m model.ChatMessage
		var sources []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &sources, &m.ModelUsed,
			&m.TokensUsed, &m.ResponseTimeMs, &m.Rating, &m.Feedback, &m.Ctime); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &m.Sources); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *ChatRepo) RateMessage(ctx context.Context, messageID string, rating int, feedback string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_messages SET rating = $1, feedback = $2 WHERE id = $3`, rating, feedback, messageID)
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
