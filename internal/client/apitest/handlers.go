package apitest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := readJSON(r, &in); err != nil || in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Email and password are required"})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[strings.ToLower(in.Email)]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "User already exists"})
		return
	}
	u := &User{ID: s.id(), Username: in.Username, Email: in.Email, Name: in.Name, Password: in.Password}
	s.users[strings.ToLower(in.Email)] = u
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": userJSON(u, issueToken(u.ID, tokenTTL))})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Malformed request"})
		return
	}

	s.mu.Lock()
	u := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if u == nil || u.Password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": userJSON(u, issueToken(u.ID, tokenTTL))})
}

// google accepts GoogleToken only and answers with a flat user record and
// a top-level token, the shape some deployments use.
func (s *Server) google(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := readJSON(r, &in); err != nil || in.Token != GoogleToken {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid Google token"})
		return
	}

	s.mu.Lock()
	u := s.users["google.user@example.com"]
	if u == nil {
		u = &User{ID: s.id(), Username: "googler", Email: "google.user@example.com", Name: "Google User"}
		s.users[strings.ToLower(u.Email)] = u
	}
	s.mu.Unlock()

	body := userJSON(u, "")
	body["token"] = issueToken(u.ID, tokenTTL)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	missing := s.VerifyMissing
	s.mu.Unlock()
	if missing {
		http.NotFound(w, r)
		return
	}

	s.authed(func(w http.ResponseWriter, _ *http.Request, u *User) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": userJSON(u, "")})
	})(w, r)
}

type mealIn struct {
	MealType    string   `json:"mealType"`
	MealDate    string   `json:"mealDate"`
	FoodItem    string   `json:"foodItem"`
	ServingSize *float64 `json:"servingSize"`
	Unit        string   `json:"unit"`
	Calories    float64  `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
	Notes       string   `json:"notes"`
}

func (m mealIn) record(id string, userID int) map[string]any {
	rec := map[string]any{
		"_id":      id,
		"userId":   userID,
		"mealType": m.MealType,
		"mealDate": m.MealDate,
		"foodItem": m.FoodItem,
		"calories": m.Calories,
	}
	if m.MealDate == "" {
		rec["mealDate"] = time.Now().UTC().Format(time.RFC3339)
	}
	setOpt := func(k string, v *float64) {
		if v != nil {
			rec[k] = *v
		}
	}
	setOpt("servingSize", m.ServingSize)
	setOpt("protein", m.Protein)
	setOpt("carbs", m.Carbs)
	setOpt("fat", m.Fat)
	if m.Unit != "" {
		rec["unit"] = m.Unit
	}
	if m.Notes != "" {
		rec["notes"] = m.Notes
	}
	return rec
}

func (s *Server) createMeal(w http.ResponseWriter, r *http.Request, u *User) {
	var in mealIn
	if err := readJSON(r, &in); err != nil || in.FoodItem == "" || in.Calories <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid meal"})
		return
	}

	s.mu.Lock()
	rec := in.record(fmt.Sprintf("meal-%d", s.id()), u.ID)
	s.meals = append(s.meals, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request, _ *User) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	date := q.Get("date")
	mealType := q.Get("mealType")

	s.mu.Lock()
	items := []map[string]any{}
	for i := len(s.meals) - 1; i >= 0; i-- {
		m := s.meals[i]
		if date != "" && !strings.HasPrefix(fmt.Sprint(m["mealDate"]), date) {
			continue
		}
		if mealType != "" && m["mealType"] != mealType {
			continue
		}
		items = append(items, m)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "page": 1})
}

func (s *Server) findMeal(id string) int {
	for i, m := range s.meals {
		if fmt.Sprint(m["_id"]) == id || fmt.Sprint(m["id"]) == id {
			return i
		}
	}
	return -1
}

func (s *Server) getMeal(w http.ResponseWriter, r *http.Request, _ *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findMeal(mux.Vars(r)["id"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Meal not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "meal": s.meals[i]})
}

func (s *Server) updateMeal(w http.ResponseWriter, r *http.Request, u *User) {
	var in mealIn
	if err := readJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid meal"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := mux.Vars(r)["id"]
	i := s.findMeal(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Meal not found"})
		return
	}
	s.meals[i] = in.record(id, u.ID)
	writeJSON(w, http.StatusOK, s.meals[i])
}

func (s *Server) deleteMeal(w http.ResponseWriter, r *http.Request, _ *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findMeal(mux.Vars(r)["id"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Meal not found"})
		return
	}
	s.meals = append(s.meals[:i], s.meals[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (s *Server) dailySummary(w http.ResponseWriter, r *http.Request, _ *User) {
	date := r.URL.Query().Get("date")

	var cal, pro, carb, fat float64
	s.mu.Lock()
	for _, m := range s.meals {
		if date != "" && !strings.HasPrefix(fmt.Sprint(m["mealDate"]), date) {
			continue
		}
		cal += num(m["calories"])
		pro += num(m["protein"])
		carb += num(m["carbs"])
		fat += num(m["fat"])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"date":       date,
		"calories":   map[string]any{"current": cal, "target": 2000},
		"protein":    map[string]any{"current": pro},
		"totalCarbs": carb,
		"totalFat":   fat,
	})
}

func (s *Server) listPresets(w http.ResponseWriter, _ *http.Request, _ *User) {
	s.mu.Lock()
	items := append([]map[string]any{}, s.presets...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"presets": items})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request, _ *User) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	s.mu.Lock()
	var total float64
	for _, m := range s.meals {
		total += num(m["calories"])
	}
	count := len(s.meals)
	s.mu.Unlock()

	avg := 0.0
	if days > 0 {
		avg = total / float64(days)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"days":            days,
			"totalMeals":      count,
			"averageCalories": avg,
		},
	})
}

func (s *Server) quickAdd(w http.ResponseWriter, r *http.Request, u *User) {
	var in struct {
		PresetID string `json:"presetId"`
	}
	if err := readJSON(r, &in); err != nil || in.PresetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "presetId is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.presets {
		if fmt.Sprint(p["presetId"]) != in.PresetID && fmt.Sprint(p["id"]) != in.PresetID {
			continue
		}
		rec := map[string]any{
			"id":       fmt.Sprintf("meal-%d", s.id()),
			"userId":   u.ID,
			"mealType": "SNACK",
			"mealDate": time.Now().UTC().Format(time.RFC3339),
			"foodItem": p["name"],
			"calories": num(p["calories"]),
			"protein":  num(p["protein"]),
			"carbs":    num(p["carbs"]),
			"fat":      num(p["fat"]),
		}
		s.meals = append(s.meals, rec)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": rec})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Preset not found"})
}

func (s *Server) listWorkouts(w http.ResponseWriter, r *http.Request, u *User) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	s.mu.Lock()
	items := []map[string]any{}
	for _, wk := range s.workouts {
		if wk["userId"] != u.ID {
			continue
		}
		if d := q.Get("difficulty"); d != "" && wk["difficulty"] != d {
			continue
		}
		items = append(items, wk)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"workouts": items})
}

func (s *Server) createWorkout(w http.ResponseWriter, r *http.Request, u *User) {
	var in map[string]any
	if err := readJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Malformed request"})
		return
	}
	title, _ := in["title"].(string)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Title is required"})
		return
	}

	s.mu.Lock()
	in["id"] = s.id()
	in["userId"] = u.ID
	s.workouts = append(s.workouts, in)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, in)
}
