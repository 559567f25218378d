package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/healthup/internal/client/client"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

// WorkoutPageSize is the page requested on every refresh.
const WorkoutPageSize = 50

type WorkoutLibrary interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, form models.WorkoutForm) (models.Workout, error)
	Workouts() []models.Workout
	Reset()
}

type workoutLibrary struct {
	api  client.WorkoutAPI
	auth StatusSource
	log  logging.Logger

	mu       sync.RWMutex
	workouts []models.Workout
}

func NewWorkoutLibrary(api client.WorkoutAPI, auth StatusSource, opts ...Option) WorkoutLibrary {
	o := buildOptions(opts)
	return &workoutLibrary{api: api, auth: auth, log: o.log}
}

// Refresh replaces the collection with the first page from the server.
// Without a session the collection is emptied and nothing is fetched.
func (l *workoutLibrary) Refresh(ctx context.Context) error {
	if err := requireAuth(l.auth); err != nil {
		l.Reset()
		return err
	}

	list, err := l.api.ListWorkouts(ctx, models.WorkoutQuery{Page: 1, Limit: WorkoutPageSize})
	if err != nil {
		l.log.Error(ctx, "workouts load failed", "error", err)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	l.mu.Lock()
	l.workouts = list
	l.mu.Unlock()
	return nil
}

// Create validates the form, creates the workout and then refetches the
// collection. When the refetch fails the workout was still created: it is
// returned together with an error wrapping ErrLoadFailed.
func (l *workoutLibrary) Create(ctx context.Context, form models.WorkoutForm) (models.Workout, error) {
	if err := requireAuth(l.auth); err != nil {
		return models.Workout{}, err
	}

	req, err := form.Validate()
	if err != nil {
		return models.Workout{}, err
	}

	created, err := l.api.CreateWorkout(ctx, req)
	if err != nil {
		l.log.Warn(ctx, "create workout failed", "title", req.Title, "error", err)
		return models.Workout{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	l.log.Info(ctx, "workout created", "id", created.ID, "title", created.Title)

	if err := l.Refresh(ctx); err != nil {
		return created, fmt.Errorf("refresh after create: %w", err)
	}
	return created, nil
}

func (l *workoutLibrary) Workouts() []models.Workout {
	if requireAuth(l.auth) != nil {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Workout(nil), l.workouts...)
}

func (l *workoutLibrary) Reset() {
	l.mu.Lock()
	l.workouts = nil
	l.mu.Unlock()
}
