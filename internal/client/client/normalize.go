package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

// The API is served by backends that disagree on envelopes. Each endpoint
// has one decoder below with a fixed lookup order; call sites only ever
// see the typed result.

type object map[string]json.RawMessage

func parseObject(b []byte) (object, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func isArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}

// nested returns the raw object stored under the first key that holds an
// object, or nil.
func (o object) nested(keys ...string) json.RawMessage {
	for _, k := range keys {
		if _, ok := parseObject(o[k]); ok {
			return o[k]
		}
	}
	return nil
}

// record returns the payload object of a single-record response: the first
// nested object under keys, else the body itself.
func record(body []byte, keys ...string) (json.RawMessage, error) {
	obj, ok := parseObject(body)
	if !ok {
		return nil, fmt.Errorf("%w: expected object", ErrUnexpectedResponse)
	}
	if raw := obj.nested(keys...); raw != nil {
		return raw, nil
	}
	return body, nil
}

// listItems extracts a list payload: "items", else the alternate key
// (e.g. "meals"), else "data", else a bare JSON array.
func listItems(body []byte, alt string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if isArray(body) {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		return items, nil
	}

	obj, ok := parseObject(body)
	if !ok {
		return nil, fmt.Errorf("%w: expected list", ErrUnexpectedResponse)
	}
	for _, k := range []string{"items", alt, "data"} {
		if isArray(obj[k]) {
			if err := json.Unmarshal(obj[k], &items); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, k, err)
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("%w: no list in response", ErrUnexpectedResponse)
}

// flexFloat accepts a JSON number, a numeric string or null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexFloat(v)
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

func (f *flexFloat) val() float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}

func (f *flexFloat) intPtr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	*s = flexString(models.ParseID(b))
	return nil
}

func str(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func firstID(raws ...json.RawMessage) string {
	for _, r := range raws {
		if id := models.ParseID(r); id != "" {
			return id
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// AuthResponse is the normalised reply of every /auth endpoint.
type AuthResponse struct {
	Status  int
	Success *bool
	User    *models.User
	Message string
}

// OK reports whether the response is a success: an explicit success flag
// wins, otherwise any 2xx status counts.
func (r *AuthResponse) OK() bool {
	if r == nil {
		return false
	}
	if r.Success != nil {
		return *r.Success
	}
	return r.Status >= 200 && r.Status < 300
}

var authEnvelopeKeys = []string{"success", "message", "user", "data", "status", "error"}

// decodeAuth reads the user from "user", else "data.user", else the body
// itself. A token carried next to the user is copied into it when the
// user record has none.
func decodeAuth(status int, body []byte) (*AuthResponse, error) {
	r := &AuthResponse{Status: status}
	if len(bytes.TrimSpace(body)) == 0 {
		return r, nil
	}

	obj, ok := parseObject(body)
	if !ok {
		return nil, fmt.Errorf("%w: auth response is not an object", ErrUnexpectedResponse)
	}

	var success bool
	if err := json.Unmarshal(obj["success"], &success); err == nil {
		r.Success = &success
	}
	r.Message = errorMessage(body)

	envelope := obj
	raw := obj.nested("user")
	if raw == nil {
		if data, ok := parseObject(obj.nested("data")); ok {
			envelope = data
			raw = data.nested("user")
		}
	}

	if raw != nil {
		u := &models.User{}
		if err := json.Unmarshal(raw, u); err != nil {
			return nil, fmt.Errorf("%w: user: %v", ErrUnexpectedResponse, err)
		}
		r.User = u
	} else {
		top := make(object, len(obj))
		for k, v := range obj {
			top[k] = v
		}
		for _, k := range authEnvelopeKeys {
			delete(top, k)
		}
		b, err := json.Marshal(top)
		if err != nil {
			return nil, err
		}
		u := &models.User{}
		if err := json.Unmarshal(b, u); err != nil {
			return nil, fmt.Errorf("%w: user: %v", ErrUnexpectedResponse, err)
		}
		if u.ID != "" || u.Username != "" || u.Email != "" || u.BearerToken() != "" {
			r.User = u
		}
	}

	if r.User != nil && r.User.BearerToken() == "" {
		r.User.AccessToken = firstNonEmpty(str(envelope["accessToken"]), str(obj["accessToken"]))
		r.User.Token = firstNonEmpty(str(envelope["token"]), str(obj["token"]))
	}

	return r, nil
}

type wireMeal struct {
	ID          json.RawMessage `json:"id"`
	UID         json.RawMessage `json:"_id"`
	MealType    string          `json:"mealType"`
	Type        string          `json:"type"`
	MealDate    string          `json:"mealDate"`
	DateTime    string          `json:"dateTime"`
	CreatedAt   string          `json:"createdAt"`
	FoodItem    string          `json:"foodItem"`
	ServingSize *flexFloat      `json:"servingSize"`
	Unit        string          `json:"unit"`
	Calories    *flexFloat      `json:"calories"`
	Protein     *flexFloat      `json:"protein"`
	Carbs       *flexFloat      `json:"carbs"`
	Fat         *flexFloat      `json:"fat"`
	Items       json.RawMessage `json:"items"`
	Notes       string          `json:"notes"`
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (w wireMeal) meal() models.Meal {
	items := 0
	var n int
	if err := json.Unmarshal(w.Items, &n); err == nil {
		items = n
	} else if isArray(w.Items) {
		var arr []json.RawMessage
		if json.Unmarshal(w.Items, &arr) == nil {
			items = len(arr)
		}
	}

	return models.Meal{
		ID:          firstID(w.ID, w.UID),
		MealType:    models.MealType(strings.ToUpper(firstNonEmpty(w.MealType, w.Type))),
		FoodItem:    w.FoodItem,
		MealDate:    parseTime(firstNonEmpty(w.MealDate, w.DateTime, w.CreatedAt)),
		ServingSize: w.ServingSize.ptr(),
		Unit:        w.Unit,
		Nutrients: models.Nutrients{
			Calories: w.Calories.val(),
			Protein:  w.Protein.val(),
			Carbs:    w.Carbs.val(),
			Fat:      w.Fat.val(),
		},
		Items: items,
		Notes: w.Notes,
	}
}

// decodeMeal reads a meal from "meal", else "data", else the body itself.
func decodeMeal(body []byte) (models.Meal, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Meal{}, nil
	}
	raw, err := record(body, "meal", "data")
	if err != nil {
		return models.Meal{}, err
	}
	var w wireMeal
	if err := decodeInto(raw, &w); err != nil {
		return models.Meal{}, err
	}
	return w.meal(), nil
}

func decodeMeals(body []byte) ([]models.Meal, error) {
	items, err := listItems(body, "meals")
	if err != nil {
		return nil, err
	}
	meals := make([]models.Meal, 0, len(items))
	for _, it := range items {
		var w wireMeal
		if err := decodeInto(it, &w); err != nil {
			return nil, err
		}
		meals = append(meals, w.meal())
	}
	return meals, nil
}

type wireRollup struct {
	Current *flexFloat `json:"current"`
	Target  *flexFloat `json:"target"`
}

// rollup picks current from "<n>.current", else the flat total, else 0,
// and target from "<n>.target", else def.
func rollup(obj object, key string, total json.RawMessage, def float64) models.Rollup {
	var (
		r models.Rollup
		w wireRollup
		t flexFloat
	)
	if _, ok := parseObject(obj[key]); ok {
		_ = json.Unmarshal(obj[key], &w)
	}

	switch {
	case w.Current != nil:
		r.Current = w.Current.val()
	case len(total) > 0 && json.Unmarshal(total, &t) == nil:
		r.Current = float64(t)
	}

	r.Target = def
	if w.Target != nil && w.Target.val() > 0 {
		r.Target = w.Target.val()
	}
	return r
}

// decodeSummary reads the rollups from "summary", else "data", else the body.
func decodeSummary(body []byte) (models.Summary, error) {
	raw, err := record(body, "summary", "data")
	if err != nil {
		return models.Summary{}, err
	}
	obj, _ := parseObject(raw)

	return models.Summary{
		Calories: rollup(obj, "calories", obj["totalCalories"], models.DefaultCaloriesTarget),
		Protein:  rollup(obj, "protein", obj["totalProtein"], models.DefaultProteinTarget),
		Carbs:    rollup(obj, "carbs", obj["totalCarbs"], models.DefaultCarbsTarget),
		Fat:      rollup(obj, "fat", obj["totalFat"], models.DefaultFatTarget),
	}, nil
}

type wirePreset struct {
	ID       json.RawMessage `json:"id"`
	UID      json.RawMessage `json:"_id"`
	PresetID json.RawMessage `json:"presetId"`
	Name     string          `json:"name"`
	FoodItem string          `json:"foodItem"`
	Icon     string          `json:"icon"`
	Calories *flexFloat      `json:"calories"`
	Protein  *flexFloat      `json:"protein"`
	Carbs    *flexFloat      `json:"carbs"`
	Fat      *flexFloat      `json:"fat"`
}

// decodePresets marks every served preset with its server identifier:
// "presetId", else "id", else "_id".
func decodePresets(body []byte) ([]models.Preset, error) {
	items, err := listItems(body, "presets")
	if err != nil {
		return nil, err
	}
	presets := make([]models.Preset, 0, len(items))
	for _, it := range items {
		var w wirePreset
		if err := decodeInto(it, &w); err != nil {
			return nil, err
		}
		serverID := firstID(w.PresetID, w.ID, w.UID)
		presets = append(presets, models.Preset{
			ID:       firstNonEmpty(firstID(w.ID, w.UID), serverID),
			ServerID: serverID,
			Name:     firstNonEmpty(w.Name, w.FoodItem),
			Icon:     firstNonEmpty(w.Icon, models.MealSnack.Icon()),
			Nutrients: models.Nutrients{
				Calories: w.Calories.val(),
				Protein:  w.Protein.val(),
				Carbs:    w.Carbs.val(),
				Fat:      w.Fat.val(),
			},
		})
	}
	return presets, nil
}

func decodeStats(body []byte, days int) (models.NutritionStats, error) {
	raw, err := record(body, "stats", "data")
	if err != nil {
		return models.NutritionStats{}, err
	}
	values := map[string]any{}
	if err := decodeInto(raw, &values); err != nil {
		return models.NutritionStats{}, err
	}
	delete(values, "success")
	return models.NutritionStats{Days: days, Values: values}, nil
}

type wireWorkout struct {
	ID           json.RawMessage `json:"id"`
	UID          json.RawMessage `json:"_id"`
	Title        string          `json:"title"`
	Name         string          `json:"name"`
	BodyParts    []string        `json:"bodyParts"`
	BodyPart     string          `json:"bodyPart"`
	Difficulty   string          `json:"difficulty"`
	Equipment    []string        `json:"equipment"`
	Instructions []string        `json:"instructions"`
	TutorialLink string          `json:"tutorialLink"`
	Duration     *flexFloat      `json:"duration"`
	Calories     *flexFloat      `json:"calories"`
	Sets         *flexFloat      `json:"sets"`
	Reps         flexString      `json:"reps"`
	RestTime     *flexFloat      `json:"restTime"`
	Notes        string          `json:"notes"`
}

func (w wireWorkout) workout() models.Workout {
	parts := w.BodyParts
	if len(parts) == 0 && w.BodyPart != "" {
		parts = []string{w.BodyPart}
	}
	return models.Workout{
		ID:           firstID(w.ID, w.UID),
		Title:        firstNonEmpty(w.Title, w.Name),
		BodyParts:    parts,
		Difficulty:   models.Difficulty(strings.ToUpper(w.Difficulty)),
		Equipment:    w.Equipment,
		Instructions: w.Instructions,
		TutorialLink: w.TutorialLink,
		Duration:     w.Duration.intPtr(),
		Calories:     w.Calories.intPtr(),
		Sets:         w.Sets.intPtr(),
		Reps:         string(w.Reps),
		RestTime:     w.RestTime.intPtr(),
		Notes:        w.Notes,
	}
}

func decodeWorkout(body []byte) (models.Workout, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Workout{}, nil
	}
	raw, err := record(body, "workout", "data")
	if err != nil {
		return models.Workout{}, err
	}
	var w wireWorkout
	if err := decodeInto(raw, &w); err != nil {
		return models.Workout{}, err
	}
	return w.workout(), nil
}

func decodeWorkouts(body []byte) ([]models.Workout, error) {
	items, err := listItems(body, "workouts")
	if err != nil {
		return nil, err
	}
	out := make([]models.Workout, 0, len(items))
	for _, it := range items {
		var w wireWorkout
		if err := decodeInto(it, &w); err != nil {
			return nil, err
		}
		out = append(out, w.workout())
	}
	return out, nil
}
