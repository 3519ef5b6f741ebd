package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"civic-chat/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS messages (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS messages_user_created_idx ON messages (user_id, created_at DESC);
`

const (
	selectRecentSQL = `SELECT user_id, role, content, created_at
		FROM messages WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`

	insertMessageSQL = `INSERT INTO messages (user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)`
)

// pgxAPI is the subset of *pgxpool.Pool used by PostgresStore.
type pgxAPI interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps conversation messages in a relational messages table.
type PostgresStore struct {
	db pgxAPI
}

func NewPostgres(db pgxAPI) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("repository: db must not be nil")
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresPool opens and pings a small pool sized for one request at a time.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("repository: parse database URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("repository: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the messages table and its index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("repository: EnsureSchema: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit most recent messages for ownerID, oldest first.
func (s *PostgresStore) RecentMessages(ctx context.Context, ownerID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, selectRecentSQL, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: RecentMessages query: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var (
			m    domain.Message
			role string
		)
		if err := rows.Scan(&m.OwnerID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: RecentMessages scan: %w", err)
		}
		m.Role = domain.Role(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: RecentMessages rows: %w", err)
	}
	reverse(msgs)
	return msgs, nil
}

// AppendMessage inserts a single message row.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg domain.Message) error {
	if err := validateMessage(msg); err != nil {
		return fmt.Errorf("repository: AppendMessage: %w", err)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	tag, err := s.db.Exec(ctx, insertMessageSQL, msg.OwnerID, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: AppendMessage: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("repository: AppendMessage: expected 1 row, got %d", tag.RowsAffected())
	}
	return nil
}
