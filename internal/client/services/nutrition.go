package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/healthup/internal/client/client"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

const (
	RecentMealsLimit = 10
	DefaultStatsDays = 7
)

// NutritionView is a point-in-time copy of the tracker state.
type NutritionView struct {
	Day     string
	Summary models.Summary
	Recent  []models.Entry
	Presets []models.Preset
	Loaded  bool
}

type NutritionTracker interface {
	Load(ctx context.Context) error
	LogMeal(ctx context.Context, form models.MealForm) (models.Entry, error)
	QuickAdd(ctx context.Context, preset models.Preset) (models.Entry, error)
	Meal(ctx context.Context, id string) (models.Meal, error)
	Update(ctx context.Context, id string, form models.MealForm) (models.Meal, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, days int) (models.NutritionStats, error)
	Snapshot() NutritionView
	Reset()
}

type Option func(*options)

type options struct {
	log   logging.Logger
	clock func() time.Time
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

func buildOptions(opts []Option) options {
	o := options{log: logging.Discard(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type nutritionTracker struct {
	api   client.NutritionAPI
	auth  StatusSource
	log   logging.Logger
	clock func() time.Time

	mu      sync.RWMutex
	day     string
	summary models.Summary
	recent  []models.Entry
	presets []models.Preset
	loaded  bool
}

func NewNutritionTracker(api client.NutritionAPI, auth StatusSource, opts ...Option) NutritionTracker {
	o := buildOptions(opts)
	return &nutritionTracker{
		api:     api,
		auth:    auth,
		log:     o.log,
		clock:   o.clock,
		summary: models.DefaultSummary(),
	}
}

// Load fetches the recent meals, today's summary and the presets in
// parallel. A failed preset fetch falls back to the built-in presets; a
// failure of either of the other two fails the whole load.
func (t *nutritionTracker) Load(ctx context.Context) error {
	if err := requireAuth(t.auth); err != nil {
		t.Reset()
		return err
	}

	now := t.clock()
	day := models.Day(now)

	var (
		meals   []models.Meal
		summary models.Summary
		presets []models.Preset
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = t.api.ListMeals(gctx, models.MealQuery{Page: 1, Limit: RecentMealsLimit})
		if err != nil {
			return fmt.Errorf("list meals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = t.api.DailySummary(gctx, day)
		if err != nil {
			return fmt.Errorf("daily summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		p, err := t.api.Presets(gctx)
		if err != nil {
			t.log.Warn(ctx, "presets unavailable, using built-in", "error", err)
			return nil
		}
		presets = p
		return nil
	})

	err := g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(presets) == 0 {
		presets = models.DefaultPresets()
	}
	t.presets = presets

	if err != nil {
		t.log.Error(ctx, "nutrition load failed", "error", err)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	recent := make([]models.Entry, 0, len(meals))
	for _, m := range meals {
		recent = append(recent, models.EntryFromMeal(m))
	}

	t.day = day
	t.summary = summary
	t.recent = recent
	t.loaded = true
	return nil
}

func (t *nutritionTracker) LogMeal(ctx context.Context, form models.MealForm) (models.Entry, error) {
	if err := requireAuth(t.auth); err != nil {
		return models.Entry{}, err
	}

	req, err := form.Validate(t.clock())
	if err != nil {
		return models.Entry{}, err
	}

	saved, err := t.api.LogMeal(ctx, req)
	if err != nil {
		t.log.Warn(ctx, "log meal failed", "food", req.FoodItem, "error", err)
		return models.Entry{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	loggedAt := saved.MealDate
	if loggedAt.IsZero() {
		loggedAt, _ = time.Parse(time.RFC3339, req.MealDate)
	}

	entry := models.Entry{
		ID:       entryID(saved.ID),
		Type:     req.MealType,
		FoodItem: req.FoodItem,
		Calories: req.Calories,
		Items:    1,
		Icon:     req.MealType.Icon(),
		LoggedAt: loggedAt,
	}

	t.merge(entry, req.Nutrients())
	t.log.Info(ctx, "meal logged", "id", entry.ID, "calories", req.Calories)
	return entry, nil
}

// QuickAdd logs a preset as a snack. Presets known to the server go
// through the quick-add endpoint, built-in ones are logged as plain meals.
func (t *nutritionTracker) QuickAdd(ctx context.Context, preset models.Preset) (models.Entry, error) {
	if err := requireAuth(t.auth); err != nil {
		return models.Entry{}, err
	}
	if preset.Name == "" {
		return models.Entry{}, fmt.Errorf("%w: preset has no name", models.ErrValidation)
	}

	now := t.clock()

	var (
		saved models.Meal
		err   error
	)
	if preset.ServerID != "" {
		saved, err = t.api.QuickAdd(ctx, preset.ServerID)
	} else {
		saved, err = t.api.LogMeal(ctx, presetRequest(preset, now))
	}
	if err != nil {
		t.log.Warn(ctx, "quick add failed", "preset", preset.Name, "error", err)
		return models.Entry{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	loggedAt := saved.MealDate
	if loggedAt.IsZero() {
		loggedAt = now
	}

	entry := models.Entry{
		ID:       entryID(saved.ID),
		Type:     models.MealSnack,
		FoodItem: preset.Name,
		Calories: preset.Calories,
		Items:    1,
		Icon:     preset.Icon,
		LoggedAt: loggedAt,
	}

	t.merge(entry, preset.Nutrients)
	t.log.Info(ctx, "preset added", "id", entry.ID, "preset", preset.Name)
	return entry, nil
}

func (t *nutritionTracker) Meal(ctx context.Context, id string) (models.Meal, error) {
	if err := requireAuth(t.auth); err != nil {
		return models.Meal{}, err
	}
	m, err := t.api.GetMeal(ctx, id)
	if err != nil {
		return models.Meal{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return m, nil
}

// Update replaces a meal on the server and reloads the aggregate.
func (t *nutritionTracker) Update(ctx context.Context, id string, form models.MealForm) (models.Meal, error) {
	if err := requireAuth(t.auth); err != nil {
		return models.Meal{}, err
	}

	req, err := form.Validate(t.clock())
	if err != nil {
		return models.Meal{}, err
	}

	m, err := t.api.UpdateMeal(ctx, id, req)
	if err != nil {
		return models.Meal{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return m, t.Load(ctx)
}

// Delete removes a meal on the server and reloads the aggregate, since the
// deleted meal's nutrients are not known locally.
func (t *nutritionTracker) Delete(ctx context.Context, id string) error {
	if err := requireAuth(t.auth); err != nil {
		return err
	}
	if err := t.api.DeleteMeal(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return t.Load(ctx)
}

func (t *nutritionTracker) Stats(ctx context.Context, days int) (models.NutritionStats, error) {
	if err := requireAuth(t.auth); err != nil {
		return models.NutritionStats{}, err
	}
	if days <= 0 {
		days = DefaultStatsDays
	}
	stats, err := t.api.Stats(ctx, days)
	if err != nil {
		return models.NutritionStats{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return stats, nil
}

func (t *nutritionTracker) Snapshot() NutritionView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return NutritionView{
		Day:     t.day,
		Summary: t.summary,
		Recent:  append([]models.Entry(nil), t.recent...),
		Presets: append([]models.Preset(nil), t.presets...),
		Loaded:  t.loaded,
	}
}

// Reset drops everything, as on sign-out.
func (t *nutritionTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.day = ""
	t.summary = models.DefaultSummary()
	t.recent = nil
	t.presets = nil
	t.loaded = false
}

// merge prepends the entry and adds n to the current totals. The first
// merge of a new calendar day starts from zeroed totals and an empty list.
func (t *nutritionTracker) merge(e models.Entry, n models.Nutrients) {
	day := models.Day(t.clock())

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.day != "" && t.day != day {
		t.summary = t.summary.Reset()
		t.recent = nil
	}
	t.day = day

	t.summary = t.summary.Add(n)
	t.recent = append([]models.Entry{e}, t.recent...)
}

func presetRequest(p models.Preset, now time.Time) models.MealRequest {
	protein, carbs, fat := p.Protein, p.Carbs, p.Fat
	return models.MealRequest{
		MealType: models.MealSnack,
		MealDate: now.UTC().Format(time.RFC3339),
		FoodItem: p.Name,
		Calories: p.Calories,
		Protein:  &protein,
		Carbs:    &carbs,
		Fat:      &fat,
	}
}

func entryID(id string) string {
	if id != "" {
		return id
	}
	return "local-" + uuid.NewString()
}

// IsValidation reports whether err was caused by rejected input rather
// than by the server.
func IsValidation(err error) bool {
	return errors.Is(err, models.ErrValidation)
}
