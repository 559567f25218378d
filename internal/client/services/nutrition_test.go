package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/healthup/internal/client/apitest"
	"github.com/dmitrijs2005/healthup/internal/client/client"
	"github.com/dmitrijs2005/healthup/internal/client/credentials"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/client/session"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

type fakeStatus session.Status

func (s fakeStatus) Status() session.Status { return session.Status(s) }

var (
	signedIn  = fakeStatus(session.Authenticated)
	signedOut = fakeStatus(session.Unauthenticated)
)

type fakeNutrition struct {
	mu    sync.Mutex
	calls map[string]int

	meals      []models.Meal
	mealsErr   error
	summary    models.Summary
	summaryErr error
	presets    []models.Preset
	presetsErr error
	statsErr   error

	logErr      error
	logID       string
	lastLog     models.MealRequest
	quickErr    error
	lastQuickID string
	deleteErr   error
}

func (f *fakeNutrition) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeNutrition) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeNutrition) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeNutrition) LogMeal(_ context.Context, req models.MealRequest) (models.Meal, error) {
	f.hit("log")
	f.mu.Lock()
	f.lastLog = req
	f.mu.Unlock()
	if f.logErr != nil {
		return models.Meal{}, f.logErr
	}
	return models.Meal{ID: f.logID, MealType: req.MealType, FoodItem: req.FoodItem, Nutrients: req.Nutrients()}, nil
}

func (f *fakeNutrition) ListMeals(context.Context, models.MealQuery) ([]models.Meal, error) {
	f.hit("list")
	return f.meals, f.mealsErr
}

func (f *fakeNutrition) GetMeal(_ context.Context, id string) (models.Meal, error) {
	f.hit("get")
	for _, m := range f.meals {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Meal{}, &client.APIError{Status: 404, Message: "Meal not found"}
}

func (f *fakeNutrition) UpdateMeal(_ context.Context, id string, req models.MealRequest) (models.Meal, error) {
	f.hit("update")
	for i, m := range f.meals {
		if m.ID == id {
			f.meals[i] = models.Meal{ID: id, MealType: req.MealType, FoodItem: req.FoodItem, Nutrients: req.Nutrients()}
			return f.meals[i], nil
		}
	}
	return models.Meal{}, &client.APIError{Status: 404, Message: "Meal not found"}
}

func (f *fakeNutrition) DeleteMeal(context.Context, string) error {
	f.hit("delete")
	return f.deleteErr
}

func (f *fakeNutrition) DailySummary(context.Context, string) (models.Summary, error) {
	f.hit("summary")
	return f.summary, f.summaryErr
}

func (f *fakeNutrition) Stats(_ context.Context, days int) (models.NutritionStats, error) {
	f.hit("stats")
	return models.NutritionStats{Days: days}, f.statsErr
}

func (f *fakeNutrition) Presets(context.Context) ([]models.Preset, error) {
	f.hit("presets")
	return f.presets, f.presetsErr
}

func (f *fakeNutrition) QuickAdd(_ context.Context, id string) (models.Meal, error) {
	f.hit("quick")
	f.mu.Lock()
	f.lastQuickID = id
	f.mu.Unlock()
	if f.quickErr != nil {
		return models.Meal{}, f.quickErr
	}
	return models.Meal{ID: "srv-" + id, MealType: models.MealSnack}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func summaryAt(cal, protein float64) models.Summary {
	s := models.DefaultSummary()
	s.Calories.Current = cal
	s.Protein.Current = protein
	return s
}

func newTracker(t *testing.T, api *fakeNutrition, c *clock) NutritionTracker {
	t.Helper()
	if c == nil {
		c = &clock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	}
	return NewNutritionTracker(api, signedIn, WithClock(c.Now))
}

func TestNutritionTracker_Load(t *testing.T) {
	api := &fakeNutrition{
		meals:   []models.Meal{{ID: "m1", MealType: models.MealLunch, FoodItem: "Soup", Nutrients: models.Nutrients{Calories: 250}}},
		summary: summaryAt(1200, 60),
		presets: []models.Preset{{ID: "p1", ServerID: "p1", Name: "Shake", Icon: "🥤"}},
	}
	tr := newTracker(t, api, nil)

	require.NoError(t, tr.Load(context.Background()))

	v := tr.Snapshot()
	assert.True(t, v.Loaded)
	assert.Equal(t, "2026-03-14", v.Day)
	assert.Equal(t, 1200.0, v.Summary.Calories.Current)
	require.Len(t, v.Recent, 1)
	assert.Equal(t, "m1", v.Recent[0].ID)
	assert.Equal(t, 1, v.Recent[0].Items)
	require.Len(t, v.Presets, 1)
	assert.Equal(t, "Shake", v.Presets[0].Name)
}

func TestNutritionTracker_LoadPresetFallback(t *testing.T) {
	api := &fakeNutrition{summary: summaryAt(0, 0), presetsErr: client.ErrUnavailable}
	tr := newTracker(t, api, nil)

	require.NoError(t, tr.Load(context.Background()))
	assert.Equal(t, models.DefaultPresets(), tr.Snapshot().Presets)
}

func TestNutritionTracker_LoadFailure(t *testing.T) {
	api := &fakeNutrition{summaryErr: client.ErrUnavailable}
	tr := newTracker(t, api, nil)

	err := tr.Load(context.Background())
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, client.ErrUnavailable)

	v := tr.Snapshot()
	assert.False(t, v.Loaded)
	assert.Equal(t, models.DefaultSummary(), v.Summary)
	assert.Equal(t, models.DefaultPresets(), v.Presets)
}

func TestNutritionTracker_LogMealMergesWithoutRefetch(t *testing.T) {
	api := &fakeNutrition{summary: summaryAt(500, 20), logID: "m-new"}
	tr := newTracker(t, api, nil)
	ctx := context.Background()
	require.NoError(t, tr.Load(ctx))

	form := models.NewMealForm()
	form.MealType = "lunch"
	form.FoodItem = "  Chicken salad "
	form.Calories = "300"
	form.Protein = "25"

	entry, err := tr.LogMeal(ctx, form)
	require.NoError(t, err)

	assert.Equal(t, "m-new", entry.ID)
	assert.Equal(t, models.MealLunch, entry.Type)
	assert.Equal(t, "Chicken salad", entry.FoodItem)
	assert.Equal(t, models.MealLunch.Icon(), entry.Icon)
	assert.False(t, entry.LoggedAt.IsZero())

	v := tr.Snapshot()
	assert.Equal(t, 800.0, v.Summary.Calories.Current)
	assert.Equal(t, 45.0, v.Summary.Protein.Current)
	assert.Equal(t, 0.0, v.Summary.Carbs.Current)
	assert.Equal(t, 2100.0, v.Summary.Calories.Target)
	require.Len(t, v.Recent, 1)
	assert.Equal(t, entry, v.Recent[0])

	assert.Equal(t, 1, api.count("list"))
	assert.Equal(t, 1, api.count("summary"))
}

func TestNutritionTracker_LogMealFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeNutrition{summary: summaryAt(500, 20), logErr: &client.APIError{Status: 500, Message: "boom"}}
	tr := newTracker(t, api, nil)
	ctx := context.Background()
	require.NoError(t, tr.Load(ctx))
	before := tr.Snapshot()

	form := models.NewMealForm()
	form.FoodItem = "Pizza"
	form.Calories = "900"

	_, err := tr.LogMeal(ctx, form)
	require.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, "boom", client.Message(err))
	assert.Equal(t, before, tr.Snapshot())
}

func TestNutritionTracker_LogMealInvalidFormSendsNothing(t *testing.T) {
	api := &fakeNutrition{}
	tr := newTracker(t, api, nil)

	tests := []struct {
		name string
		form models.MealForm
	}{
		{"missing food", models.MealForm{Calories: "100"}},
		{"missing calories", models.MealForm{FoodItem: "Toast"}},
		{"zero calories", models.MealForm{FoodItem: "Water", Calories: "0"}},
		{"bad date", models.MealForm{FoodItem: "Toast", Calories: "100", MealDate: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.LogMeal(context.Background(), tt.form)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
	assert.Equal(t, 0, api.total())
}

func TestNutritionTracker_LocalIDFallback(t *testing.T) {
	api := &fakeNutrition{}
	tr := newTracker(t, api, nil)

	entry, err := tr.LogMeal(context.Background(), models.MealForm{FoodItem: "Toast", Calories: "120"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.ID, "local-"), entry.ID)
}

func TestNutritionTracker_QuickAdd(t *testing.T) {
	t.Run("server preset", func(t *testing.T) {
		api := &fakeNutrition{}
		tr := newTracker(t, api, nil)

		p := models.Preset{ID: "p9", ServerID: "srv9", Name: "Shake", Icon: "🥤", Nutrients: models.Nutrients{Calories: 150, Protein: 30}}
		entry, err := tr.QuickAdd(context.Background(), p)
		require.NoError(t, err)

		assert.Equal(t, "srv9", api.lastQuickID)
		assert.Equal(t, 0, api.count("log"))
		assert.Equal(t, "srv-srv9", entry.ID)
		assert.Equal(t, "🥤", entry.Icon)
		assert.Equal(t, models.MealSnack, entry.Type)

		v := tr.Snapshot()
		assert.Equal(t, 150.0, v.Summary.Calories.Current)
		assert.Equal(t, 30.0, v.Summary.Protein.Current)
	})

	t.Run("built-in preset", func(t *testing.T) {
		api := &fakeNutrition{logID: "m1"}
		tr := newTracker(t, api, nil)

		apple := models.DefaultPresets()[1]
		entry, err := tr.QuickAdd(context.Background(), apple)
		require.NoError(t, err)

		assert.Equal(t, 0, api.count("quick"))
		assert.Equal(t, models.MealSnack, api.lastLog.MealType)
		assert.Equal(t, "Apple", api.lastLog.FoodItem)
		assert.Equal(t, 95.0, api.lastLog.Calories)
		require.NotNil(t, api.lastLog.Carbs)
		assert.Equal(t, 25.0, *api.lastLog.Carbs)
		assert.Equal(t, "🍎", entry.Icon)
		assert.Equal(t, 25.0, tr.Snapshot().Summary.Carbs.Current)
	})

	t.Run("failure", func(t *testing.T) {
		api := &fakeNutrition{quickErr: client.ErrUnavailable}
		tr := newTracker(t, api, nil)

		_, err := tr.QuickAdd(context.Background(), models.Preset{ServerID: "x", Name: "X", Nutrients: models.Nutrients{Calories: 10}})
		require.ErrorIs(t, err, ErrSaveFailed)
		assert.Empty(t, tr.Snapshot().Recent)
		assert.Equal(t, 0.0, tr.Snapshot().Summary.Calories.Current)
	})
}

func TestNutritionTracker_ConcurrentMergesCommute(t *testing.T) {
	api := &fakeNutrition{}
	tr := newTracker(t, api, nil)
	coffee := models.DefaultPresets()[0]
	eggs := models.DefaultPresets()[2]

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		p := coffee
		if i%2 == 1 {
			p = eggs
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.QuickAdd(context.Background(), p)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v := tr.Snapshot()
	assert.Len(t, v.Recent, 20)
	assert.Equal(t, 10*5.0+10*70.0, v.Summary.Calories.Current)
	assert.Equal(t, 60.0, v.Summary.Protein.Current)
	assert.Equal(t, 50.0, v.Summary.Fat.Current)
}

func TestNutritionTracker_DayRollover(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 14, 23, 50, 0, 0, time.UTC)}
	api := &fakeNutrition{summary: summaryAt(1800, 90)}
	tr := newTracker(t, api, c)
	ctx := context.Background()
	require.NoError(t, tr.Load(ctx))

	coffee := models.DefaultPresets()[0]
	_, err := tr.QuickAdd(ctx, coffee)
	require.NoError(t, err)
	assert.Equal(t, 1805.0, tr.Snapshot().Summary.Calories.Current)

	c.Set(time.Date(2026, 3, 15, 0, 5, 0, 0, time.UTC))
	_, err = tr.QuickAdd(ctx, coffee)
	require.NoError(t, err)

	v := tr.Snapshot()
	assert.Equal(t, "2026-03-15", v.Day)
	assert.Equal(t, 5.0, v.Summary.Calories.Current)
	assert.Equal(t, 0.0, v.Summary.Protein.Current)
	assert.Equal(t, 2100.0, v.Summary.Calories.Target)
	assert.Len(t, v.Recent, 1)
}

func TestNutritionTracker_Delete(t *testing.T) {
	api := &fakeNutrition{summary: summaryAt(300, 0)}
	tr := newTracker(t, api, nil)
	ctx := context.Background()

	require.NoError(t, tr.Delete(ctx, "m1"))
	assert.Equal(t, 1, api.count("delete"))
	assert.Equal(t, 1, api.count("list"))
	assert.Equal(t, 300.0, tr.Snapshot().Summary.Calories.Current)

	api.deleteErr = client.ErrNotFound
	err := tr.Delete(ctx, "missing")
	require.ErrorIs(t, err, ErrSaveFailed)
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Equal(t, 1, api.count("list"))
}

func TestNutritionTracker_MealAndUpdate(t *testing.T) {
	api := &fakeNutrition{meals: []models.Meal{{ID: "m1", FoodItem: "Toast", Nutrients: models.Nutrients{Calories: 100}}}}
	tr := newTracker(t, api, nil)
	ctx := context.Background()

	m, err := tr.Meal(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Toast", m.FoodItem)

	_, err = tr.Meal(ctx, "nope")
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, client.ErrNotFound)

	updated, err := tr.Update(ctx, "m1", models.MealForm{FoodItem: "Bagel", Calories: "250"})
	require.NoError(t, err)
	assert.Equal(t, "Bagel", updated.FoodItem)
	assert.Equal(t, 1, api.count("list"), "update reloads the aggregate")
	assert.Equal(t, "Bagel", tr.Snapshot().Recent[0].FoodItem)

	_, err = tr.Update(ctx, "m1", models.MealForm{FoodItem: "Bagel"})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 1, api.count("update"))
}

func TestNutritionTracker_Stats(t *testing.T) {
	api := &fakeNutrition{}
	tr := newTracker(t, api, nil)

	stats, err := tr.Stats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatsDays, stats.Days)

	api.statsErr = errors.New("down")
	_, err = tr.Stats(context.Background(), 30)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestNutritionTracker_SignedOut(t *testing.T) {
	api := &fakeNutrition{summary: summaryAt(100, 0)}
	tr := NewNutritionTracker(api, signedOut)
	ctx := context.Background()

	assert.ErrorIs(t, tr.Load(ctx), session.ErrNotAuthenticated)
	_, err := tr.LogMeal(ctx, models.MealForm{FoodItem: "Toast", Calories: "100"})
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = tr.QuickAdd(ctx, models.DefaultPresets()[0])
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.ErrorIs(t, tr.Delete(ctx, "m1"), session.ErrNotAuthenticated)

	assert.Equal(t, 0, api.total())
	assert.False(t, tr.Snapshot().Loaded)
}

func TestNutritionTracker_Reset(t *testing.T) {
	api := &fakeNutrition{summary: summaryAt(700, 10), meals: []models.Meal{{ID: "m1"}}}
	tr := newTracker(t, api, nil)
	require.NoError(t, tr.Load(context.Background()))

	tr.Reset()

	v := tr.Snapshot()
	assert.False(t, v.Loaded)
	assert.Empty(t, v.Recent)
	assert.Empty(t, v.Presets)
	assert.Equal(t, models.DefaultSummary(), v.Summary)
}

func TestNutritionTracker_AgainstAPI(t *testing.T) {
	srv := apitest.NewServer(t)
	token := srv.AddUser(apitest.User{Username: "ana", Email: "ana@example.com", Password: "secret"})
	srv.AddPreset(map[string]any{"presetId": "shake", "name": "Protein shake", "icon": "🥤", "calories": 180, "protein": 30})

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), &models.User{ID: "1", AccessToken: token}))

	c, err := client.New(srv.URL(), client.WithMiddleware(client.BearerAuth(store, logging.Discard())))
	require.NoError(t, err)

	tr := NewNutritionTracker(c, signedIn)
	ctx := context.Background()
	require.NoError(t, tr.Load(ctx))

	v := tr.Snapshot()
	require.Len(t, v.Presets, 1)
	assert.Equal(t, "shake", v.Presets[0].ServerID)

	_, err = tr.QuickAdd(ctx, v.Presets[0])
	require.NoError(t, err)
	_, err = tr.LogMeal(ctx, models.MealForm{MealType: "dinner", FoodItem: "Pasta", Calories: "650", Carbs: "80"})
	require.NoError(t, err)

	v = tr.Snapshot()
	assert.Equal(t, 830.0, v.Summary.Calories.Current)
	assert.Equal(t, 80.0, v.Summary.Carbs.Current)
	require.Len(t, v.Recent, 2)
	assert.Equal(t, "Pasta", v.Recent[0].FoodItem)
	assert.Equal(t, "Protein shake", v.Recent[1].FoodItem)

	assert.Len(t, srv.Meals(), 2)
	assert.Equal(t, 1, srv.Calls("GET", "/nutrition"))
}
