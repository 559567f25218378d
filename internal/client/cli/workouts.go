package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/client/services"
)

// Workouts refreshes and prints the workout library.
func (a *App) Workouts(ctx context.Context) error {
	if err := a.workouts.Refresh(ctx); err != nil {
		a.reportFailure("Could not load workouts", err)
		return err
	}
	a.printWorkouts(a.workouts.Workouts())
	return nil
}

func (a *App) printWorkouts(list []models.Workout) {
	if len(list) == 0 {
		a.println("No workouts yet. Use 'create' to add one.")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tDIFFICULTY\tBODY PARTS\tVOLUME\tID")
	for _, w := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", w.Title, w.Difficulty, strings.Join(w.BodyParts, ", "), volume(w), w.ID)
	}
	_ = tw.Flush()
}

func volume(w models.Workout) string {
	switch {
	case w.Sets != nil && w.Reps != "":
		return fmt.Sprintf("%dx%s", *w.Sets, w.Reps)
	case w.Sets != nil:
		return fmt.Sprintf("%d sets", *w.Sets)
	case w.Duration != nil:
		return fmt.Sprintf("%d min", *w.Duration)
	default:
		return "-"
	}
}

// CreateWorkout walks the user through the workout form. As with meals,
// the input of a failed attempt becomes the defaults of the next one.
func (a *App) CreateWorkout(ctx context.Context) error {
	form, err := a.promptWorkoutForm(a.workoutForm)
	if err != nil {
		return err
	}
	a.workoutForm = form

	created, err := a.workouts.Create(ctx, form)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrLoadFailed):
		a.reportFailure("Workout saved but the list could not be refreshed", err)
	default:
		a.reportFailure("Failed to create workout", err)
		return err
	}

	a.workoutForm = models.WorkoutForm{}
	a.printf("Created workout %q.\n", created.Title)
	a.printWorkouts(a.workouts.Workouts())
	return nil
}

func (a *App) promptWorkoutForm(f models.WorkoutForm) (models.WorkoutForm, error) {
	var err error
	text := func(prompt string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = GetWithDefault(a.reader, prompt, *dst, a.out)
	}
	list := func(prompt string, dst *[]string) {
		if err != nil {
			return
		}
		var v string
		v, err = GetWithDefault(a.reader, prompt, strings.Join(*dst, ", "), a.out)
		*dst = splitList(v)
	}

	text("Title", &f.Title)
	list("Body parts, comma separated ("+strings.Join(models.BodyParts, ", ")+")", &f.BodyParts)
	text("Difficulty (BEGINNER, INTERMEDIATE, ADVANCED)", &f.Difficulty)
	list("Equipment, comma separated ("+strings.Join(models.EquipmentOptions, ", ")+")", &f.Equipment)
	if err != nil {
		return f, err
	}

	if len(f.Instructions) == 0 {
		steps, lerr := GetLines(a.reader, "Instructions, one step per line", a.out)
		if lerr != nil {
			return f, lerr
		}
		f.Instructions = steps
	}

	text("Tutorial link (optional)", &f.TutorialLink)
	text("Duration in minutes (optional)", &f.Duration)
	text("Calories burned (optional)", &f.Calories)
	text("Sets (optional)", &f.Sets)
	text("Reps (optional, e.g. 8-12)", &f.Reps)
	text("Rest time in seconds (optional)", &f.RestTime)
	text("Notes (optional)", &f.Notes)
	return f, err
}
