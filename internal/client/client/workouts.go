package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

func (c *HTTPClient) ListWorkouts(ctx context.Context, q models.WorkoutQuery) ([]models.Workout, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Difficulty != "" {
		params.Set("difficulty", string(q.Difficulty))
	}
	if q.BodyPart != "" {
		params.Set("bodyPart", q.BodyPart)
	}
	if q.Query != "" {
		params.Set("query", q.Query)
	}

	_, body, err := c.do(ctx, call{method: http.MethodGet, route: "/workouts", path: "/workouts", query: params})
	if err != nil {
		return nil, err
	}
	return decodeWorkouts(body)
}

func (c *HTTPClient) CreateWorkout(ctx context.Context, req models.WorkoutRequest) (models.Workout, error) {
	_, body, err := c.do(ctx, call{method: http.MethodPost, route: "/workouts", path: "/workouts", body: req})
	if err != nil {
		return models.Workout{}, err
	}
	return decodeWorkout(body)
}
