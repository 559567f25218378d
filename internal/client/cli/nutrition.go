package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/healthup/internal/client/client"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/client/services"
)

// Meals loads the nutrition aggregate on first use and prints today's
// rollups followed by the recent meals.
func (a *App) Meals(ctx context.Context) error {
	view, err := a.nutritionView(ctx)
	if err != nil {
		return err
	}

	a.printf("Today (%s)\n", view.Day)
	s := view.Summary
	a.printRollup("Calories", "kcal", s.Calories)
	a.printRollup("Protein", "g", s.Protein)
	a.printRollup("Carbs", "g", s.Carbs)
	a.printRollup("Fat", "g", s.Fat)

	if len(view.Recent) == 0 {
		a.println("No meals logged yet.")
		return nil
	}

	now := time.Now()
	a.println()
	tw := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "\tFOOD\tTYPE\tKCAL\tWHEN\tID")
	for _, e := range view.Recent {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%s\t%s\n", e.Icon, e.FoodItem, e.Type, e.Calories, e.DisplayTime(now), e.ID)
	}
	return tw.Flush()
}

func (a *App) printRollup(label, unit string, r models.Rollup) {
	pct := 0.0
	if r.Target > 0 {
		pct = r.Current / r.Target * 100
	}
	a.printf("  %-9s %6.0f / %-5.0f %-4s (%3.0f%%)\n", label, r.Current, r.Target, unit, pct)
}

// nutritionView returns the tracker snapshot, loading it first when this
// is the first visit since sign-in.
func (a *App) nutritionView(ctx context.Context) (services.NutritionView, error) {
	view := a.nutrition.Snapshot()
	if view.Loaded {
		return view, nil
	}
	if err := a.nutrition.Load(ctx); err != nil {
		a.reportFailure("Could not load nutrition data", err)
		if !errors.Is(err, services.ErrLoadFailed) {
			return services.NutritionView{}, err
		}
	}
	return a.nutrition.Snapshot(), nil
}

// LogMeal walks the user through the meal form. Input from a failed
// attempt is offered again as the defaults of the next one.
func (a *App) LogMeal(ctx context.Context) error {
	form, err := a.promptMealForm(a.mealForm)
	if err != nil {
		return err
	}
	a.mealForm = form

	entry, err := a.nutrition.LogMeal(ctx, form)
	if err != nil {
		a.reportFailure("Failed to save meal", err)
		return err
	}

	a.mealForm = models.NewMealForm()
	a.printf("%s Logged %s (%.0f kcal).\n", entry.Icon, entry.FoodItem, entry.Calories)
	return nil
}

func (a *App) promptMealForm(f models.MealForm) (models.MealForm, error) {
	types := make([]string, len(models.MealTypes))
	for i, t := range models.MealTypes {
		types[i] = string(t)
	}

	fields := []struct {
		prompt string
		value  *string
	}{
		{"Food item", &f.FoodItem},
		{"Meal type (" + strings.Join(types, ", ") + ")", &f.MealType},
		{"Calories", &f.Calories},
		{"Protein (g, optional)", &f.Protein},
		{"Carbs (g, optional)", &f.Carbs},
		{"Fat (g, optional)", &f.Fat},
		{"Serving size (optional)", &f.ServingSize},
		{"Unit", &f.Unit},
		{"Date and time (YYYY-MM-DDTHH:MM, empty for now)", &f.MealDate},
		{"Notes (optional)", &f.Notes},
	}
	for _, fld := range fields {
		v, err := GetWithDefault(a.reader, fld.prompt, *fld.value, a.out)
		if err != nil {
			return f, err
		}
		*fld.value = v
	}
	return f, nil
}

// ShowMeal prints a single meal fetched from the server.
func (a *App) ShowMeal(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter meal ID")
	if err != nil {
		return err
	}

	m, err := a.nutrition.Meal(ctx, id)
	if err != nil {
		a.reportFailure("Could not load meal", err)
		return err
	}

	a.printf("%s %s (%s)\n", m.MealType.Icon(), m.FoodItem, m.MealType)
	if !m.MealDate.IsZero() {
		a.printf("  When:     %s\n", m.MealDate.Local().Format(time.DateTime))
	}
	if m.ServingSize != nil {
		a.printf("  Serving:  %g %s\n", *m.ServingSize, m.Unit)
	}
	n := m.Nutrients
	a.printf("  Calories: %.0f kcal  Protein: %.0f g  Carbs: %.0f g  Fat: %.0f g\n", n.Calories, n.Protein, n.Carbs, n.Fat)
	if m.Notes != "" {
		a.printf("  Notes:    %s\n", m.Notes)
	}
	return nil
}

// EditMeal loads a meal into the form, lets the user change it and saves
// it back.
func (a *App) EditMeal(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter meal ID")
	if err != nil {
		return err
	}

	m, err := a.nutrition.Meal(ctx, id)
	if err != nil {
		a.reportFailure("Could not load meal", err)
		return err
	}

	form, err := a.promptMealForm(mealToForm(m))
	if err != nil {
		return err
	}
	if _, err := a.nutrition.Update(ctx, id, form); err != nil {
		a.reportFailure("Failed to update meal", err)
		return err
	}
	a.println("Meal updated.")
	return nil
}

func mealToForm(m models.Meal) models.MealForm {
	f := models.NewMealForm()
	f.FoodItem = m.FoodItem
	if m.MealType != "" {
		f.MealType = string(m.MealType)
	}
	if !m.MealDate.IsZero() {
		f.MealDate = m.MealDate.Local().Format("2006-01-02T15:04")
	}
	f.Calories = formatNum(m.Nutrients.Calories)
	f.Protein = formatNum(m.Nutrients.Protein)
	f.Carbs = formatNum(m.Nutrients.Carbs)
	f.Fat = formatNum(m.Nutrients.Fat)
	if m.ServingSize != nil {
		f.ServingSize = formatNum(*m.ServingSize)
	}
	if m.Unit != "" {
		f.Unit = m.Unit
	}
	f.Notes = m.Notes
	return f
}

func formatNum(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// QuickAdd logs a preset. The preset is picked by its 1-based number or
// name from the arguments, or interactively.
func (a *App) QuickAdd(ctx context.Context, args []string) error {
	view, err := a.nutritionView(ctx)
	if err != nil {
		return err
	}

	choice := strings.Join(args, " ")
	if choice == "" {
		for i, p := range view.Presets {
			a.printf("  %d. %s %s (%.0f kcal)\n", i+1, p.Icon, p.Name, p.Calories)
		}
		if choice, err = getSimpleText(a.reader, "Choose a preset", a.out); err != nil {
			return err
		}
	}

	preset, ok := pickPreset(view.Presets, choice)
	if !ok {
		a.println("Unknown preset:", choice)
		return fmt.Errorf("%w: unknown preset %q", models.ErrValidation, choice)
	}

	entry, err := a.nutrition.QuickAdd(ctx, preset)
	if err != nil {
		a.reportFailure("Failed to add "+preset.Name, err)
		return err
	}
	a.printf("%s Added %s (%.0f kcal).\n", entry.Icon, entry.FoodItem, entry.Calories)
	return nil
}

func pickPreset(presets []models.Preset, choice string) (models.Preset, bool) {
	choice = strings.TrimSpace(choice)
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(presets) {
		return presets[n-1], true
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, choice) {
			return p, true
		}
	}
	return models.Preset{}, false
}

// DeleteMeal removes a meal and reloads the aggregate.
func (a *App) DeleteMeal(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter meal ID")
	if err != nil {
		return err
	}

	if err := a.nutrition.Delete(ctx, id); err != nil {
		a.reportFailure("Failed to delete meal", err)
		return err
	}
	a.println("Meal deleted.")
	return nil
}

// Stats prints the server's nutrition statistics for the last N days.
func (a *App) Stats(ctx context.Context, args []string) error {
	days := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			a.println("Usage: stats [days]")
			return fmt.Errorf("%w: days must be a positive number", models.ErrValidation)
		}
		days = n
	}

	stats, err := a.nutrition.Stats(ctx, days)
	if err != nil {
		a.reportFailure("Could not load statistics", err)
		return err
	}

	a.printf("Statistics for the last %d days\n", stats.Days)
	keys := make([]string, 0, len(stats.Values))
	for k := range stats.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("  %-20s %v\n", k, stats.Values[k])
	}
	return nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: value is required", models.ErrValidation)
	}
	return v, nil
}

// reportFailure prints a one-line explanation of err. Validation messages
// and server messages are shown as they are. A 401 prints nothing: the
// session has already been dropped and the expiry notice follows.
func (a *App) reportFailure(what string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		a.log.Debug(context.Background(), what, "error", err)
	case errors.As(err, &verr):
		a.println("Error:", verr.Message)
	case errors.Is(err, client.ErrUnauthorized):
		a.println(what + ": not authorized")
	case errors.Is(err, client.ErrUnavailable):
		a.println(what + ": server unavailable, please try again")
	case client.Message(err) != "":
		a.println(what+":", client.Message(err))
	default:
		a.println(what+":", err)
	}
}
