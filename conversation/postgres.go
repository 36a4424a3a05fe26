package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/tripflow/message"
)

// PostgresStore implements Store using PostgreSQL. Messages are append-only
// rows ordered by a serial column.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "tripflow",
		SSLMode: "disable",
	}
}

// NewPostgresStore creates a new PostgreSQL-based conversation store
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return store, nil
}

// createTable creates the thread_messages table if it doesn't exist
func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS thread_messages (
		seq BIGSERIAL PRIMARY KEY,
		thread_id VARCHAR(255) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_thread_messages_thread ON thread_messages(thread_id, seq);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Messages returns the full thread history in insertion order.
func (s *PostgresStore) Messages(ctx context.Context, threadID string) ([]*message.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM thread_messages WHERE thread_id = $1 ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var msgs []*message.Message
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		var msg message.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message in thread %s: %w", threadID, err)
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thread %s: %w", threadID, err)
	}
	return msgs, nil
}

// Append inserts messages at the end of a thread inside one transaction so
// the batch keeps its relative order.
func (s *PostgresStore) Append(ctx context.Context, threadID string, msgs ...*message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		if msg == nil {
			return fmt.Errorf("message cannot be nil")
		}
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO thread_messages (thread_id, payload, created_at) VALUES ($1, $2, $3)`,
			threadID, raw, msg.CreatedAt); err != nil {
			return fmt.Errorf("failed to append to thread %s: %w", threadID, err)
		}
	}

	return tx.Commit()
}

// Len returns the current thread length.
func (s *PostgresStore) Len(ctx context.Context, threadID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM thread_messages WHERE thread_id = $1`, threadID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count thread %s: %w", threadID, err)
	}
	return count, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks if the PostgreSQL connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
