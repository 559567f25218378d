package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

func (c *HTTPClient) LogMeal(ctx context.Context, req models.MealRequest) (models.Meal, error) {
	_, body, err := c.do(ctx, call{method: http.MethodPost, route: "/nutrition", path: "/nutrition", body: req})
	if err != nil {
		return models.Meal{}, err
	}
	return decodeMeal(body)
}

func (c *HTTPClient) ListMeals(ctx context.Context, q models.MealQuery) ([]models.Meal, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Date != "" {
		params.Set("date", q.Date)
	}
	if q.MealType != "" {
		params.Set("mealType", string(q.MealType))
	}

	_, body, err := c.do(ctx, call{method: http.MethodGet, route: "/nutrition", path: "/nutrition", query: params})
	if err != nil {
		return nil, err
	}
	return decodeMeals(body)
}

func (c *HTTPClient) GetMeal(ctx context.Context, id string) (models.Meal, error) {
	_, body, err := c.do(ctx, call{method: http.MethodGet, route: "/nutrition/{id}", path: "/nutrition/" + url.PathEscape(id)})
	if err != nil {
		return models.Meal{}, err
	}
	return decodeMeal(body)
}

func (c *HTTPClient) UpdateMeal(ctx context.Context, id string, req models.MealRequest) (models.Meal, error) {
	_, body, err := c.do(ctx, call{method: http.MethodPut, route: "/nutrition/{id}", path: "/nutrition/" + url.PathEscape(id), body: req})
	if err != nil {
		return models.Meal{}, err
	}
	return decodeMeal(body)
}

func (c *HTTPClient) DeleteMeal(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, call{method: http.MethodDelete, route: "/nutrition/{id}", path: "/nutrition/" + url.PathEscape(id)})
	return err
}

// DailySummary fetches the rollups for date (YYYY-MM-DD).
func (c *HTTPClient) DailySummary(ctx context.Context, date string) (models.Summary, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	_, body, err := c.do(ctx, call{method: http.MethodGet, route: "/nutrition/daily-summary", path: "/nutrition/daily-summary", query: params})
	if err != nil {
		return models.Summary{}, err
	}
	return decodeSummary(body)
}

func (c *HTTPClient) Stats(ctx context.Context, days int) (models.NutritionStats, error) {
	if days <= 0 {
		days = 7
	}
	params := url.Values{"days": {strconv.Itoa(days)}}
	_, body, err := c.do(ctx, call{method: http.MethodGet, route: "/nutrition/stats", path: "/nutrition/stats", query: params})
	if err != nil {
		return models.NutritionStats{}, err
	}
	return decodeStats(body, days)
}

func (c *HTTPClient) Presets(ctx context.Context) ([]models.Preset, error) {
	_, body, err := c.do(ctx, call{method: http.MethodGet, route: "/nutrition/presets", path: "/nutrition/presets"})
	if err != nil {
		return nil, err
	}
	return decodePresets(body)
}

func (c *HTTPClient) QuickAdd(ctx context.Context, presetID string) (models.Meal, error) {
	_, body, err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/nutrition/quick-add",
		path:   "/nutrition/quick-add",
		body:   map[string]string{"presetId": presetID},
	})
	if err != nil {
		return models.Meal{}, err
	}
	return decodeMeal(body)
}
