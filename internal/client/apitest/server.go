// Package apitest runs an in-process fake of the HealthUp REST API for
// tests. It keeps users, meals, presets and workouts in memory, issues
// signed JWT bearer tokens, records every request and can be told to fail
// or stall specific routes.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const (
	BasePath    = "/api/v1"
	GoogleToken = "google-id-token"
	tokenTTL    = time.Hour
)

var signingKey = []byte("apitest-secret")

type User struct {
	ID       int
	Username string
	Email    string
	Name     string
	Password string
}

// Request is a recorded call, path relative to BasePath.
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

type fault struct {
	status int
	body   string
	delay  time.Duration
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]*User
	meals    []map[string]any
	presets  []map[string]any
	workouts []map[string]any
	nextID   int
	requests []Request
	faults   map[string]fault

	// VerifyMissing makes GET /auth/verify answer 404.
	VerifyMissing bool
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:  map[string]*User{},
		faults: map[string]fault{},
		nextID: 1,
	}

	r := mux.NewRouter()
	api := r.PathPrefix(BasePath).Subrouter()
	api.Use(s.record, s.inject)

	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/google", s.google).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", s.verify).Methods(http.MethodGet)

	api.HandleFunc("/nutrition", s.authed(s.createMeal)).Methods(http.MethodPost)
	api.HandleFunc("/nutrition", s.authed(s.listMeals)).Methods(http.MethodGet)
	api.HandleFunc("/nutrition/daily-summary", s.authed(s.dailySummary)).Methods(http.MethodGet)
	api.HandleFunc("/nutrition/presets", s.authed(s.listPresets)).Methods(http.MethodGet)
	api.HandleFunc("/nutrition/stats", s.authed(s.stats)).Methods(http.MethodGet)
	api.HandleFunc("/nutrition/quick-add", s.authed(s.quickAdd)).Methods(http.MethodPost)
	api.HandleFunc("/nutrition/{id}", s.authed(s.getMeal)).Methods(http.MethodGet)
	api.HandleFunc("/nutrition/{id}", s.authed(s.updateMeal)).Methods(http.MethodPut)
	api.HandleFunc("/nutrition/{id}", s.authed(s.deleteMeal)).Methods(http.MethodDelete)

	api.HandleFunc("/workouts", s.authed(s.listWorkouts)).Methods(http.MethodGet)
	api.HandleFunc("/workouts", s.authed(s.createWorkout)).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// URL returns the API base URL, BasePath included.
func (s *Server) URL() string {
	return s.Server.URL + BasePath
}

func faultKey(method, path string) string {
	return method + " " + path
}

// Fail makes every call to method+path answer status with body until Heal.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey(method, path)] = fault{status: status, body: body}
}

// Stall delays every call to method+path by d before serving it.
func (s *Server) Stall(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey(method, path)] = fault{delay: d}
}

func (s *Server) Heal(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, faultKey(method, path))
}

// Calls counts recorded requests to method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to method+path.
func (s *Server) Last(method, path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if r := s.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Request{}, false
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// AddUser registers a user directly and returns a valid bearer token for it.
func (s *Server) AddUser(u User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[strings.ToLower(u.Email)] = &u
	return issueToken(u.ID, tokenTTL)
}

// ExpiredToken returns a correctly signed token that is already expired.
func (s *Server) ExpiredToken(userID int) string {
	return issueToken(userID, -time.Minute)
}

func (s *Server) AddPreset(p map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = append(s.presets, p)
}

func (s *Server) AddMeal(m map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := m["id"]; !ok {
		m["id"] = fmt.Sprintf("meal-%d", s.id())
	}
	s.meals = append(s.meals, m)
}

func (s *Server) Meals() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.meals...)
}

func (s *Server) Workouts() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.workouts...)
}

func (s *Server) id() int {
	n := s.nextID
	s.nextID++
	return n
}

func issueToken(userID int, ttl time.Duration) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return tok
}

func parseToken(header string) (int, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return 0, errors.New("missing token")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(claims.Subject)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, BasePath),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.faults[faultKey(r.Method, strings.TrimPrefix(r.URL.Path, BasePath))]
		s.mu.Unlock()

		if ok && f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		if ok && f.status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseToken(r.Header.Get("Authorization"))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Not authorized"})
			return
		}
		s.mu.Lock()
		u := s.userByID(id)
		s.mu.Unlock()
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "User not found"})
			return
		}
		h(w, r, u)
	}
}

func (s *Server) userByID(id int) *User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func userJSON(u *User, token string) map[string]any {
	m := map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"name":     u.Name,
	}
	if token != "" {
		m["accessToken"] = token
	}
	return m
}
