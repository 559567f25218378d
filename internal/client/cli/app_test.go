package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/healthup/internal/client/apitest"
	"github.com/dmitrijs2005/healthup/internal/client/config"
	"github.com/dmitrijs2005/healthup/internal/client/credentials"
	"github.com/dmitrijs2005/healthup/internal/client/guard"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/client/session"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "secret"
)

// syncBuffer collects output written from the REPL and from background
// goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	srv   *apitest.Server
	store *credentials.MemoryStore
	out   *syncBuffer
	token string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.NewServer(t)
	f := &fixture{
		srv:   srv,
		store: credentials.NewMemoryStore(),
		out:   &syncBuffer{},
	}
	f.token = srv.AddUser(apitest.User{ID: 1, Username: "ana", Email: testEmail, Name: "Ana", Password: testPassword})

	stubPassword(t, []byte(testPassword))
	return f
}

func stubPassword(t *testing.T, pw []byte) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), pw...), nil }
	t.Cleanup(func() { getPassword = orig })
}

// signIn stores a valid session as if a previous run had logged in.
func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), &models.User{
		ID: "1", Username: "ana", Email: testEmail, Name: "Ana", AccessToken: f.token,
	}))
}

func (f *fixture) app(t *testing.T, lines ...string) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = f.srv.URL()
	cfg.RequestTimeout = 2 * time.Second
	cfg.VerifyTimeout = time.Second

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	a, err := newApp(cfg, f.store, logging.Discard(), in, f.out)
	require.NoError(t, err)
	return a
}

// run starts the app, waits for session verification and feeds the REPL.
func (f *fixture) run(t *testing.T, lines ...string) *App {
	t.Helper()
	a := f.app(t, lines...)
	ctx := context.Background()
	a.Start(ctx)
	a.Ready(ctx)
	runREPL(ctx, a, a.prompt, a.reader)
	return a
}

func TestApp_RedirectToLoginAndReturn(t *testing.T) {
	f := newFixture(t)

	a := f.run(t,
		"meals",
		"login",
		testEmail,
		"quit",
	)

	out := f.out.String()
	assert.Contains(t, out, guard.Notice)
	assert.Contains(t, out, "Welcome, Ana!")
	assert.Contains(t, out, "Today (")
	assert.Contains(t, out, "Calories")
	assert.Equal(t, session.Authenticated, a.session.Status())

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, testEmail, stored.Email)
	assert.NotEmpty(t, stored.BearerToken())

	assert.Equal(t, 1, f.srv.Calls("GET", "/nutrition/daily-summary"))
}

func TestApp_LoginFailureKeepsSignedOut(t *testing.T) {
	f := newFixture(t)
	stubPassword(t, []byte("wrong"))

	a := f.run(t, "login", testEmail, "quit")

	assert.Contains(t, f.out.String(), "Error: Invalid email or password")
	assert.Equal(t, session.Unauthenticated, a.session.Status())
	assert.NotContains(t, f.out.String(), msgSessionExpired)
}

func TestApp_RegisterAndGoogle(t *testing.T) {
	f := newFixture(t)

	a := f.run(t,
		"register",
		"bo",
		"bo@example.com",
		"Bo",
		"whoami",
		"logout",
		"google "+apitest.GoogleToken,
		"quit",
	)

	out := f.out.String()
	assert.Contains(t, out, "Welcome, Bo!")
	assert.Contains(t, out, "Email:    bo@example.com")
	assert.Contains(t, out, "valid until")
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "Welcome, Google User!")
	assert.Equal(t, "google.user@example.com", a.session.User().Email)
	assert.NotEmpty(t, a.session.User().BearerToken())
}

func TestApp_ExpiredStoredSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), &models.User{ID: "1", AccessToken: f.srv.ExpiredToken(1)}))

	a := f.run(t, "quit")

	assert.Equal(t, session.Unauthenticated, a.session.Status())
	assert.Contains(t, f.out.String(), msgSessionExpired)
	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestApp_LogMealRetryKeepsInput(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.srv.Fail("POST", "/nutrition", 500, `{"success":false,"message":"database down"}`)

	a := f.app(t,
		"log",
		"Chicken salad", // food
		"lunch",         // type
		"350",           // calories
		"30",            // protein
		"", "", "", "", "", "",
		"log",
		"", "", "", "", "", "", "", "", "", "",
		"meals",
		"quit",
	)
	ctx := context.Background()
	a.Start(ctx)
	a.Ready(ctx)

	// First attempt fails, the second one resubmits the kept input.
	line, err := readLine(a.reader)
	require.NoError(t, err)
	execLine(ctx, a, line)
	assert.Contains(t, f.out.String(), "Failed to save meal: database down")
	assert.Equal(t, "Chicken salad", a.mealForm.FoodItem)
	assert.Equal(t, 0.0, a.nutrition.Snapshot().Summary.Calories.Current)

	f.srv.Heal("POST", "/nutrition")
	runREPL(ctx, a, a.prompt, a.reader)

	out := f.out.String()
	assert.Contains(t, out, "Logged Chicken salad (350 kcal)")
	assert.Contains(t, out, "Chicken salad")
	assert.Equal(t, models.NewMealForm(), a.mealForm)

	view := a.nutrition.Snapshot()
	assert.Equal(t, 350.0, view.Summary.Calories.Current)
	assert.Equal(t, 30.0, view.Summary.Protein.Current)
	require.Len(t, f.srv.Meals(), 1)
	assert.Equal(t, "LUNCH", f.srv.Meals()[0]["mealType"])
}

func TestApp_QuickAddAndStats(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.srv.AddPreset(map[string]any{"presetId": "shake", "name": "Protein shake", "icon": "🥤", "calories": 180, "protein": 30})

	a := f.run(t, "quick 1", "quick nope", "stats 3", "quit")

	out := f.out.String()
	assert.Contains(t, out, "🥤 Added Protein shake (180 kcal).")
	assert.Contains(t, out, "Unknown preset: nope")
	assert.Contains(t, out, "Statistics for the last 3 days")
	assert.Equal(t, 180.0, a.nutrition.Snapshot().Summary.Calories.Current)
	assert.Equal(t, 1, f.srv.Calls("POST", "/nutrition/quick-add"))
}

func TestApp_ShowEditDeleteMeal(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.srv.AddMeal(map[string]any{
		"id": "m1", "userId": 1, "mealType": "DINNER", "foodItem": "Pasta",
		"mealDate": time.Now().UTC().Format(time.RFC3339), "calories": 600.0,
	})

	f.run(t,
		"show m1",
		"edit m1",
		"Risotto", "", "650", "", "", "", "", "", "", "",
		"delete m1",
		"quit",
	)

	out := f.out.String()
	assert.Contains(t, out, "Pasta (DINNER)")
	assert.Contains(t, out, "Meal updated.")
	assert.Contains(t, out, "Meal deleted.")
	assert.Empty(t, f.srv.Meals())

	req, ok := f.srv.Last("PUT", "/nutrition/m1")
	require.True(t, ok)
	assert.Contains(t, string(req.Body), `"foodItem":"Risotto"`)
	assert.Contains(t, string(req.Body), `"mealType":"DINNER"`)
}

func TestApp_CreateWorkout(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	a := f.run(t,
		"create",
		"Push-ups",
		"chest, triceps",
		"beginner",
		"",
		"Get down", "Push up", "",
		"", "", "",
		"3", "12",
		"", "",
		"workouts",
		"quit",
	)

	out := f.out.String()
	assert.Contains(t, out, `Created workout "Push-ups".`)
	assert.Contains(t, out, "3x12")
	assert.Contains(t, out, "chest, triceps")
	require.Len(t, f.srv.Workouts(), 1)
	assert.Equal(t, "BEGINNER", f.srv.Workouts()[0]["difficulty"])
	assert.Equal(t, models.WorkoutForm{}, a.workoutForm)
}

func TestApp_CreateWorkoutInvalidKeepsInput(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	a := f.run(t,
		"create",
		"Plank", "", "advanced", "", "", "", "", "", "", "", "", "",
		"quit",
	)

	assert.Contains(t, f.out.String(), "Error: select at least one body part")
	assert.Equal(t, "Plank", a.workoutForm.Title)
	assert.Zero(t, f.srv.Calls("POST", "/workouts"))
}

func TestApp_UnauthorizedMidSession(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		lines  []string
		inline string
	}{
		{
			name:   "listing workouts",
			method: "GET",
			path:   "/workouts",
			lines:  []string{"workouts"},
			inline: "Could not load workouts",
		},
		{
			name:   "logging a meal",
			method: "POST",
			path:   "/nutrition",
			lines:  []string{"log", "Apple", "", "95", "", "", "", "", "", "", ""},
			inline: "Failed to save meal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.signIn(t)
			f.srv.Fail(tt.method, tt.path, 401, `{"success":false,"message":"Token revoked"}`)

			a := f.run(t, append(tt.lines, "quit")...)

			out := f.out.String()
			assert.Equal(t, session.Unauthenticated, a.session.Status())
			assert.Contains(t, out, msgSessionExpired)
			assert.NotContains(t, out, tt.inline)
			assert.NotContains(t, out, "not authorized")

			stored, err := f.store.Load(context.Background())
			require.NoError(t, err)
			assert.Nil(t, stored)
			assert.Contains(t, a.prompt(), "/auth")
		})
	}
}

func TestApp_ForbiddenIsReportedInline(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.srv.Fail("GET", "/workouts", 403, `{"success":false,"message":"Forbidden"}`)

	a := f.run(t, "workouts", "quit")

	assert.Contains(t, f.out.String(), "Could not load workouts: not authorized")
	assert.NotContains(t, f.out.String(), msgSessionExpired)
	assert.Equal(t, session.Authenticated, a.session.Status())
}

func TestApp_ProfileAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	a := f.run(t, "profile", "Ana Maria", "metrics", "quit")

	out := f.out.String()
	assert.Contains(t, out, "Profile updated.")
	assert.Equal(t, "Ana Maria", a.session.User().Name)
	assert.Contains(t, out, "healthup_client_requests_total")
	assert.Contains(t, out, `route="/auth/verify"`)

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.Name)
}

func TestApp_AlreadySignedIn(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	a := f.run(t, "login", "quit")

	assert.Contains(t, f.out.String(), "Already logged in.")
	assert.Equal(t, session.Authenticated, a.session.Status())
	assert.Zero(t, f.srv.Calls("POST", "/auth/login"))
}

func TestApp_StatusAndSignOut(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	a := f.app(t)
	require.NoError(t, a.PrintStatus(context.Background()))
	assert.Contains(t, f.out.String(), "Email:    "+testEmail)

	b := f.app(t)
	require.NoError(t, b.SignOut(context.Background()))
	assert.Contains(t, f.out.String(), "Logged out.")
	assert.Equal(t, 1, f.srv.Calls("POST", "/auth/logout"))

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)

	c := f.app(t)
	require.NoError(t, c.PrintStatus(context.Background()))
	assert.Contains(t, f.out.String(), "Not logged in.")
}
