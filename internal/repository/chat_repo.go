package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"optikcoin/internal/model"
)

type ChatRepository interface {
	// AppendMessage stores a turn and extends the whole session's expiry.
	AppendMessage(ctx context.Context, sessionID, role, content string, expiresAt time.Time) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type chatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) AppendMessage(ctx context.Context, sessionID, role, content string, expiresAt time.Time) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const insert = `
            INSERT INTO chat_messages (session_id, role, content, expires_at)
            VALUES ($1, $2, $3, $4)
            RETURNING id, session_id, role, content, created_at, expires_at
        `
		err := tx.QueryRowContext(ctx, insert, sessionID, role, content, expiresAt).Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
			&msg.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("creating chat message: %w", err)
		}
		const touch = `UPDATE chat_messages SET expires_at = $2 WHERE session_id = $1 AND expires_at < $2`
		if _, err := tx.ExecContext(ctx, touch, sessionID, expiresAt); err != nil {
			return fmt.Errorf("extending chat session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	const q = `
        SELECT id, session_id, role, content, created_at, expires_at
        FROM (
            SELECT id, session_id, role, content, created_at, expires_at
            FROM chat_messages
            WHERE session_id = $1 AND expires_at > NOW()
            ORDER BY id DESC
            LIMIT $2
        ) recent
        ORDER BY id ASC
    `
	rows, err := r.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt, &m.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return msgs, nil
}

func (r *chatRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired chat messages: %w", err)
	}
	return res.RowsAffected()
}
