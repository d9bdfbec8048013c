package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSessionNotFound    = errors.New("chat session not found")
	ErrCacheEntryNotFound = errors.New("cached query not found")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Session struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Title     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID              int64
	SessionID       uuid.UUID
	Role            string
	Content         string
	IsFromCache     bool
	SimilarityScore *float64
	CreatedAt       time.Time
}

// Service owns chat sessions and their message log.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

func (s *Service) CreateSession(ctx context.Context, userID *uuid.UUID, title string) (*Session, error) {
	if title == "" {
		title = "Cuộc trò chuyện mới"
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, is_active, created_at, updated_at`,
		userID, title)
	return scanSession(row)
}

func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1 AND is_active = true
		ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// RenameSession updates a session's title.
func (s *Service) RenameSession(ctx context.Context, id uuid.UUID, title string) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE chat_sessions SET title = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, user_id, title, is_active, created_at, updated_at`,
		id, title)
	return scanSession(row)
}

func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *Service) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, content, is_from_cache, similarity_score, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.IsFromCache,
			&m.SimilarityScore, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// AppendMessage adds one message and bumps the session's updated stamp in
// the same transaction.
func (s *Service) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string, fromCache bool, similarity *float64) (*Message, error) {
	var message Message
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO chat_messages (session_id, role, content, is_from_cache, similarity_score)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, session_id, role, content, is_from_cache, similarity_score, created_at`,
			sessionID, role, content, fromCache, similarity)
		if err := row.Scan(&message.ID, &message.SessionID, &message.Role, &message.Content,
			&message.IsFromCache, &message.SimilarityScore, &message.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrSessionNotFound
			}
			return fmt.Errorf("insert message: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET updated_at = now() WHERE id = $1`, sessionID); err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// PGCacheStore is the Postgres side of the query cache.
type PGCacheStore struct {
	pool *pgxpool.Pool
}

func NewPGCacheStore(pool *pgxpool.Pool) *PGCacheStore {
	return &PGCacheStore{pool: pool}
}

func (s *PGCacheStore) Candidates(ctx context.Context, limit int) ([]CachedQuery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, query_normalized, response, hit_count, created_at, last_used_at
		FROM cached_queries
		ORDER BY last_used_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CachedQuery
	for rows.Next() {
		var q CachedQuery
		if err := rows.Scan(&q.ID, &q.QueryNormalized, &q.Response, &q.HitCount,
			&q.CreatedAt, &q.LastUsedAt); err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

func (s *PGCacheStore) Touch(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE cached_queries SET hit_count = hit_count + 1, last_used_at = now() WHERE id = $1`, id)
	return err
}

func (s *PGCacheStore) Insert(ctx context.Context, normalized, response string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cached_queries (query_normalized, response) VALUES ($1, $2)`, normalized, response)
	return err
}

func (s *PGCacheStore) Delete(ctx context.Context, id int64) (string, error) {
	var normalized string
	err := s.pool.QueryRow(ctx, `
		DELETE FROM cached_queries WHERE id = $1 RETURNING query_normalized`, id).Scan(&normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCacheEntryNotFound
		}
		return "", fmt.Errorf("delete cached query: %w", err)
	}
	return normalized, nil
}

// Stats is the aggregate report over sessions, messages and the cache.
type Stats struct {
	TotalSessions  int64
	ActiveSessions int64
	TotalMessages  int64
	CacheAnswered  int64
	CachedQueries  int64
	CacheHits      int64
}

// Statistics counts sessions, messages and cache usage in one pass per table.
func (s *Service) Statistics(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE is_active) FROM chat_sessions`).
		Scan(&stats.TotalSessions, &stats.ActiveSessions)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE is_from_cache) FROM chat_messages`).
		Scan(&stats.TotalMessages, &stats.CacheAnswered)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(sum(hit_count), 0) FROM cached_queries`).
		Scan(&stats.CachedQueries, &stats.CacheHits)
	if err != nil {
		return nil, fmt.Errorf("count cached queries: %w", err)
	}

	return &stats, nil
}

func scanSession(row interface{ Scan(dest ...any) error }) (*Session, error) {
	var session Session
	err := row.Scan(&session.ID, &session.UserID, &session.Title, &session.IsActive,
		&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}
