package client

import (
	"context"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

type AuthAPI interface {
	Verify(ctx context.Context) (*AuthResponse, error)
	Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error)
	Register(ctx context.Context, profile models.Registration) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, token string) (*AuthResponse, error)
	Logout(ctx context.Context) error
}

type NutritionAPI interface {
	LogMeal(ctx context.Context, req models.MealRequest) (models.Meal, error)
	ListMeals(ctx context.Context, q models.MealQuery) ([]models.Meal, error)
	GetMeal(ctx context.Context, id string) (models.Meal, error)
	UpdateMeal(ctx context.Context, id string, req models.MealRequest) (models.Meal, error)
	DeleteMeal(ctx context.Context, id string) error
	DailySummary(ctx context.Context, date string) (models.Summary, error)
	Stats(ctx context.Context, days int) (models.NutritionStats, error)
	Presets(ctx context.Context) ([]models.Preset, error)
	QuickAdd(ctx context.Context, presetID string) (models.Meal, error)
}

type WorkoutAPI interface {
	ListWorkouts(ctx context.Context, q models.WorkoutQuery) ([]models.Workout, error)
	CreateWorkout(ctx context.Context, req models.WorkoutRequest) (models.Workout, error)
}

// API is everything the CLI needs from the backend.
type API interface {
	AuthAPI
	NutritionAPI
	WorkoutAPI
}

var _ API = (*HTTPClient)(nil)
