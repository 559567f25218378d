// Package services keeps the client-side aggregates of the CLI in step with
// the server.
//
// NutritionTracker holds today's nutrient rollups, the recent-meals list and
// the quick-add presets. A confirmed meal log or quick add is merged into
// the aggregate by plain addition, without refetching; a failed one leaves
// the aggregate untouched. WorkoutLibrary instead refetches the whole
// collection after every confirmed creation.
//
// Both services are safe for concurrent use; each merge is applied under a
// lock so readers never see a half-applied update.
package services

import (
	"errors"

	"github.com/dmitrijs2005/healthup/internal/client/session"
)

var (
	ErrSaveFailed = errors.New("save failed")
	ErrLoadFailed = errors.New("load failed")
)

// StatusSource reports the current authentication status.
// *session.Manager implements it.
type StatusSource interface {
	Status() session.Status
}

func requireAuth(src StatusSource) error {
	if src != nil && src.Status() != session.Authenticated {
		return session.ErrNotAuthenticated
	}
	return nil
}
