// Package credentials persists the single session record of the CLI.
//
// The record is the JSON form of models.User stored under the
// common.UserStorageKey key. Only the session manager and the 401
// middleware write it; every outgoing request reads it.
package credentials

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

// ErrCorruptRecord is returned by Load when the stored record cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt credential record")

type Store interface {
	// Load returns the stored user, or (nil, nil) when there is none.
	Load(ctx context.Context) (*models.User, error)
	// Save replaces the stored record.
	Save(ctx context.Context, u *models.User) error
	// Clear removes the record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
