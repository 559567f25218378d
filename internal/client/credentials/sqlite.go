package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/common"
	"github.com/dmitrijs2005/healthup/internal/dbx"
)

// SQLiteStore keeps the record in the credentials table created by the
// client migrations.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, key: common.UserStorageKey}
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.User, error) {
	value, err := s.get(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return decode(value)
}

func (s *SQLiteStore) Save(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.Clear(ctx)
	}
	value, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// one session at a time
		if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE key <> ?`, s.key); err != nil {
			return fmt.Errorf("failed to prune credentials: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, s.key, value)
		if err != nil {
			return fmt.Errorf("failed to set credentials[%s]: %w", s.key, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, s.key)
	if err != nil {
		return fmt.Errorf("failed to delete credentials[%s]: %w", s.key, err)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, db dbx.DBTX) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials[%s]: %w", s.key, err)
	}
	return value, nil
}

func decode(value []byte) (*models.User, error) {
	u := &models.User{}
	if err := json.Unmarshal(value, u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return u, nil
}
