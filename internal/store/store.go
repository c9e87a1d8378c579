package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-tracker/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound is returned when no order matches the given short id.
var ErrNotFound = errors.New("order not found")

// IsUniqueViolation reports whether err is a Postgres unique-index
// violation, e.g. a short id collision on insert.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// AppendStatusLog appends one audit row. The table is append-only; nothing
// in the service deletes or rewrites entries.
func (s *Store) AppendStatusLog(ctx context.Context, entry *models.StatusLogEntry) error {
	query := `
		INSERT INTO status_log (order_id, short_id, status, actor, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.db.GetContext(ctx, &entry.ID, query,
		entry.OrderID, entry.ShortID, entry.Status, entry.Actor, entry.ChangedAt)
}

// GetStatusLog retrieves the audit trail for an order, oldest first.
func (s *Store) GetStatusLog(ctx context.Context, shortID string) ([]models.StatusLogEntry, error) {
	var entries []models.StatusLogEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM status_log WHERE short_id = $1 ORDER BY changed_at, id", shortID)
	return entries, err
}
