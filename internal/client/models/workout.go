package models

import (
	"slices"
	"strconv"
	"strings"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

var BodyParts = []string{"chest", "back", "shoulders", "biceps", "triceps", "legs", "glutes", "core", "cardio", "full-body"}

var EquipmentOptions = []string{"bodyweight", "dumbbells", "barbell", "bench", "pull-up-bar", "resistance-bands", "kettlebells", "machine"}

func ParseDifficulty(s string) (Difficulty, error) {
	norm := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(Difficulties, norm) {
		return norm, nil
	}
	return "", invalid("difficulty", "unknown difficulty "+strconv.Quote(s))
}

// Workout is a workout record as returned by the API after normalisation.
type Workout struct {
	ID           string
	Title        string
	BodyParts    []string
	Difficulty   Difficulty
	Equipment    []string
	Instructions []string
	TutorialLink string
	Duration     *int
	Calories     *int
	Sets         *int
	Reps         string
	RestTime     *int
	Notes        string
}

// WorkoutRequest is the body of POST /workouts. Unset optional fields are
// left out of the JSON entirely.
type WorkoutRequest struct {
	Title        string     `json:"title"`
	BodyParts    []string   `json:"bodyParts"`
	Difficulty   Difficulty `json:"difficulty"`
	Equipment    []string   `json:"equipment,omitempty"`
	Instructions []string   `json:"instructions,omitempty"`
	TutorialLink string     `json:"tutorialLink,omitempty"`
	Duration     *int       `json:"duration,omitempty"`
	Calories     *int       `json:"calories,omitempty"`
	Sets         *int       `json:"sets,omitempty"`
	Reps         string     `json:"reps,omitempty"`
	RestTime     *int       `json:"restTime,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// WorkoutQuery filters GET /workouts. Zero values are not sent.
type WorkoutQuery struct {
	Page       int
	Limit      int
	Difficulty Difficulty
	BodyPart   string
	Query      string
}

// WorkoutForm is the raw workout input. Numeric fields stay strings so
// that blank input can be told apart from zero.
type WorkoutForm struct {
	Title        string
	BodyParts    []string
	Difficulty   string
	Equipment    []string
	Instructions []string
	TutorialLink string
	Duration     string
	Calories     string
	Sets         string
	Reps         string
	RestTime     string
	Notes        string
}

func (f WorkoutForm) Validate() (WorkoutRequest, error) {
	var (
		req WorkoutRequest
		err error
	)

	req.Title = strings.TrimSpace(f.Title)
	if req.Title == "" {
		return WorkoutRequest{}, invalid("title", "is required")
	}

	if req.BodyParts, err = pickFrom("bodyParts", f.BodyParts, BodyParts); err != nil {
		return WorkoutRequest{}, err
	}
	if len(req.BodyParts) == 0 {
		return WorkoutRequest{}, invalid("bodyParts", "select at least one body part")
	}

	if strings.TrimSpace(f.Difficulty) == "" {
		return WorkoutRequest{}, invalid("difficulty", "is required")
	}
	if req.Difficulty, err = ParseDifficulty(f.Difficulty); err != nil {
		return WorkoutRequest{}, err
	}

	if req.Equipment, err = pickFrom("equipment", f.Equipment, EquipmentOptions); err != nil {
		return WorkoutRequest{}, err
	}

	for _, step := range f.Instructions {
		if s := strings.TrimSpace(step); s != "" {
			req.Instructions = append(req.Instructions, s)
		}
	}

	if req.Duration, err = optionalInt("duration", f.Duration); err != nil {
		return WorkoutRequest{}, err
	}
	if req.Calories, err = optionalInt("calories", f.Calories); err != nil {
		return WorkoutRequest{}, err
	}
	if req.Sets, err = optionalInt("sets", f.Sets); err != nil {
		return WorkoutRequest{}, err
	}
	if req.RestTime, err = optionalInt("restTime", f.RestTime); err != nil {
		return WorkoutRequest{}, err
	}

	req.TutorialLink = optionalString(f.TutorialLink)
	req.Reps = optionalString(f.Reps)
	req.Notes = optionalString(f.Notes)

	return req, nil
}

// pickFrom lower-cases and de-duplicates values, rejecting anything not in allowed.
func pickFrom(field string, values, allowed []string) ([]string, error) {
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || slices.Contains(out, v) {
			continue
		}
		if !slices.Contains(allowed, v) {
			return nil, invalid(field, "unknown value "+strconv.Quote(v))
		}
		out = append(out, v)
	}
	return out, nil
}
