package chatstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"veritas/internal/domain"
)

// PostgresStore implements Store against two tables: chats and
// chat_messages, both scoped by session_id.
type PostgresStore struct {
	pool         *pgxpool.Pool
	chatsTable   string
	messageTable string
}

// NewPostgresStore builds a PostgresStore using the given table names
// (already prefixed by the caller, matching postgres.TableNames).
func NewPostgresStore(pool *pgxpool.Pool, chatsTable, messageTable string) *PostgresStore {
	return &PostgresStore{pool: pool, chatsTable: chatsTable, messageTable: messageTable}
}

func (s *PostgresStore) CreateChat(ctx context.Context, sessionID, title string) (Chat, error) {
	c := Chat{ID: uuid.NewString(), SessionID: sessionID, Title: title}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, title, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at
	`, s.chatsTable)

	if err := s.pool.QueryRow(ctx, query, c.ID, c.SessionID, c.Title).Scan(&c.CreatedAt); err != nil {
		return Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListChats(ctx context.Context, sessionID string) ([]Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, title, created_at FROM %s
		WHERE session_id = $1
		ORDER BY created_at DESC
	`, s.chatsTable)

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []Chat{}
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (s *PostgresStore) GetChat(ctx context.Context, sessionID, chatID string) (Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, title, created_at FROM %s
		WHERE id = $1 AND session_id = $2
	`, s.chatsTable)

	var c Chat
	err := s.pool.QueryRow(ctx, query, chatID, sessionID).Scan(&c.ID, &c.SessionID, &c.Title, &c.CreatedAt)
	if err != nil {
		return Chat{}, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return c, nil
}

func (s *PostgresStore) DeleteChat(ctx context.Context, sessionID, chatID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND session_id = $2`, s.chatsTable)
	tag, err := s.pool.Exec(ctx, query, chatID, sessionID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return nil
}

// ClearChats deletes every chat (and, via ON DELETE CASCADE, every
// message) for a session — the /api/chats/clear endpoint's contract.
func (s *PostgresStore) ClearChats(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.chatsTable)
	_, err := s.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("clear chats: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
	metaRaw, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("encode message metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, session_id, role, text, metadata, ts)
		VALUES ($1, $2, $3, $4, $5, now())
	`, s.messageTable)

	if _, err := s.pool.Exec(ctx, query, msg.ChatID, sessionID, msg.Role, msg.Text, metaRaw); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, sessionID, chatID string) ([]Message, error) {
	query := fmt.Sprintf(`
		SELECT chat_id, role, text, metadata, ts FROM %s
		WHERE chat_id = $1 AND session_id = $2
		ORDER BY ts ASC
	`, s.messageTable)

	rows, err := s.pool.Query(ctx, query, chatID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		var metaRaw []byte
		if err := rows.Scan(&m.ChatID, &m.Role, &m.Text, &metaRaw, &m.Ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
