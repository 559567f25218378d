package models

import (
	"strconv"
	"strings"
	"time"
)

type MealType string

const (
	MealBreakfast   MealType = "BREAKFAST"
	MealLunch       MealType = "LUNCH"
	MealDinner      MealType = "DINNER"
	MealSnack       MealType = "SNACK"
	MealPreWorkout  MealType = "PRE_WORKOUT"
	MealPostWorkout MealType = "POST_WORKOUT"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack, MealPreWorkout, MealPostWorkout}

// ParseMealType accepts the canonical names case-insensitively, with
// spaces or dashes in place of underscores.
func ParseMealType(s string) (MealType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, t := range MealTypes {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", invalid("mealType", "unknown meal type "+strconv.Quote(s))
}

func (t MealType) Icon() string {
	switch MealType(strings.ToUpper(string(t))) {
	case MealBreakfast:
		return "☕"
	case MealLunch:
		return "🍴"
	case MealSnack:
		return "🍎"
	case MealPreWorkout:
		return "💪"
	case MealPostWorkout:
		return "🏋️"
	default:
		return "🍽️"
	}
}

// Nutrients is one contribution to the daily rollups. Missing macros are zero.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

type Rollup struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// Summary holds the four per-day nutrient rollups.
type Summary struct {
	Calories Rollup `json:"calories"`
	Protein  Rollup `json:"protein"`
	Carbs    Rollup `json:"carbs"`
	Fat      Rollup `json:"fat"`
}

const (
	DefaultCaloriesTarget = 2100
	DefaultProteinTarget  = 120
	DefaultCarbsTarget    = 230
	DefaultFatTarget      = 70
)

func DefaultSummary() Summary {
	return Summary{
		Calories: Rollup{Target: DefaultCaloriesTarget},
		Protein:  Rollup{Target: DefaultProteinTarget},
		Carbs:    Rollup{Target: DefaultCarbsTarget},
		Fat:      Rollup{Target: DefaultFatTarget},
	}
}

// Add increments every Current by the matching contribution. Targets are untouched.
func (s Summary) Add(n Nutrients) Summary {
	s.Calories.Current += n.Calories
	s.Protein.Current += n.Protein
	s.Carbs.Current += n.Carbs
	s.Fat.Current += n.Fat
	return s
}

// Reset zeroes every Current and keeps the targets.
func (s Summary) Reset() Summary {
	s.Calories.Current = 0
	s.Protein.Current = 0
	s.Carbs.Current = 0
	s.Fat.Current = 0
	return s
}

func (s Summary) Totals() Nutrients {
	return Nutrients{
		Calories: s.Calories.Current,
		Protein:  s.Protein.Current,
		Carbs:    s.Carbs.Current,
		Fat:      s.Fat.Current,
	}
}

// Meal is a meal record as returned by the API after normalisation.
type Meal struct {
	ID          string
	MealType    MealType
	FoodItem    string
	MealDate    time.Time
	ServingSize *float64
	Unit        string
	Nutrients   Nutrients
	Items       int
	Notes       string
}

// MealRequest is the body of POST /nutrition and PUT /nutrition/{id}.
type MealRequest struct {
	MealType    MealType `json:"mealType"`
	MealDate    string   `json:"mealDate"`
	FoodItem    string   `json:"foodItem"`
	ServingSize *float64 `json:"servingSize,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Calories    float64  `json:"calories"`
	Protein     *float64 `json:"protein,omitempty"`
	Carbs       *float64 `json:"carbs,omitempty"`
	Fat         *float64 `json:"fat,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (r MealRequest) Nutrients() Nutrients {
	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	return Nutrients{
		Calories: r.Calories,
		Protein:  deref(r.Protein),
		Carbs:    deref(r.Carbs),
		Fat:      deref(r.Fat),
	}
}

// MealQuery filters GET /nutrition. Zero values are not sent.
type MealQuery struct {
	Page     int
	Limit    int
	Date     string
	MealType MealType
}

// Preset is a quick-add item. ServerID is set only for presets served by
// the API; built-in presets have none and are logged as ordinary meals.
type Preset struct {
	ID       string
	ServerID string
	Name     string
	Icon     string
	Nutrients
}

func DefaultPresets() []Preset {
	return []Preset{
		{ID: "1", Name: "Coffee", Icon: "☕", Nutrients: Nutrients{Calories: 5}},
		{ID: "2", Name: "Apple", Icon: "🍎", Nutrients: Nutrients{Calories: 95, Carbs: 25}},
		{ID: "3", Name: "Eggs", Icon: "🥚", Nutrients: Nutrients{Calories: 70, Protein: 6, Fat: 5}},
		{ID: "4", Name: "Rice", Icon: "🍚", Nutrients: Nutrients{Calories: 200, Protein: 4, Carbs: 45}},
	}
}

// Entry is one line of the recent-meals list, most recent first.
type Entry struct {
	ID       string
	Type     MealType
	FoodItem string
	Calories float64
	Items    int
	Icon     string
	LoggedAt time.Time
}

// DisplayTime renders LoggedAt relative to now, in now's location.
func (e Entry) DisplayTime(now time.Time) string {
	if e.LoggedAt.IsZero() {
		return "Unknown time"
	}
	t := e.LoggedAt.In(now.Location())
	clock := t.Format("3:04 PM")
	if sameDay(t, now) {
		return "Today, " + clock
	}
	return t.Format("1/2/2006") + ", " + clock
}

func EntryFromMeal(m Meal) Entry {
	items := m.Items
	if items == 0 {
		items = 1
	}
	return Entry{
		ID:       m.ID,
		Type:     m.MealType,
		FoodItem: m.FoodItem,
		Calories: m.Nutrients.Calories,
		Items:    items,
		Icon:     m.MealType.Icon(),
		LoggedAt: m.MealDate,
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day formats t as the YYYY-MM-DD key used by the daily summary endpoint.
func Day(t time.Time) string {
	return t.Format(time.DateOnly)
}

// NutritionStats is the free-form payload of GET /nutrition/stats.
type NutritionStats struct {
	Days   int
	Values map[string]any
}

// MealForm is the raw meal input as typed by the user.
type MealForm struct {
	MealType    string
	MealDate    string
	FoodItem    string
	ServingSize string
	Unit        string
	Calories    string
	Protein     string
	Carbs       string
	Fat         string
	Notes       string
}

func NewMealForm() MealForm {
	return MealForm{MealType: string(MealBreakfast), Unit: "grams"}
}

var mealDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// Validate checks the form and builds the request body. now supplies the
// default meal date. Nothing is sent when an error is returned.
func (f MealForm) Validate(now time.Time) (MealRequest, error) {
	var req MealRequest

	req.FoodItem = strings.TrimSpace(f.FoodItem)
	if req.FoodItem == "" {
		return MealRequest{}, invalid("foodItem", "please fill in the food item and calories")
	}

	cal := strings.TrimSpace(f.Calories)
	if cal == "" {
		return MealRequest{}, invalid("calories", "please fill in the food item and calories")
	}
	c, err := parseNumber("calories", cal)
	if err != nil {
		return MealRequest{}, err
	}
	if c <= 0 {
		return MealRequest{}, invalid("calories", "calories must be greater than 0")
	}
	req.Calories = c

	req.MealType = MealBreakfast
	if strings.TrimSpace(f.MealType) != "" {
		if req.MealType, err = ParseMealType(f.MealType); err != nil {
			return MealRequest{}, err
		}
	}

	when := now
	if d := strings.TrimSpace(f.MealDate); d != "" {
		when, err = parseMealDate(d, now.Location())
		if err != nil {
			return MealRequest{}, err
		}
	}
	req.MealDate = when.UTC().Format(time.RFC3339)

	if req.ServingSize, err = optionalFloat("servingSize", f.ServingSize); err != nil {
		return MealRequest{}, err
	}
	if req.Protein, err = optionalFloat("protein", f.Protein); err != nil {
		return MealRequest{}, err
	}
	if req.Carbs, err = optionalFloat("carbs", f.Carbs); err != nil {
		return MealRequest{}, err
	}
	if req.Fat, err = optionalFloat("fat", f.Fat); err != nil {
		return MealRequest{}, err
	}

	req.Unit = optionalString(f.Unit)
	if req.Unit == "" {
		req.Unit = "grams"
	}
	req.Notes = optionalString(f.Notes)

	return req, nil
}

func parseMealDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range mealDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("mealDate", "expected YYYY-MM-DDTHH:MM or RFC 3339")
}
