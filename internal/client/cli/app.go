package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/healthup/internal/client/client"
	"github.com/dmitrijs2005/healthup/internal/client/config"
	"github.com/dmitrijs2005/healthup/internal/client/credentials"
	"github.com/dmitrijs2005/healthup/internal/client/guard"
	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/client/services"
	"github.com/dmitrijs2005/healthup/internal/client/session"
	"github.com/dmitrijs2005/healthup/internal/common"
	"github.com/dmitrijs2005/healthup/internal/filex"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

const (
	homePath = "/"

	msgSessionExpired = "Your session has expired. Please log in again."
)

type App struct {
	config    *config.Config
	log       logging.Logger
	db        *sql.DB
	registry  *prometheus.Registry
	session   *session.Manager
	guard     guard.Guard
	nutrition services.NutritionTracker
	workouts  services.WorkoutLibrary
	reader    *bufio.Reader
	out       io.Writer
	ready     <-chan struct{}

	mu       sync.Mutex
	location string
	returnTo string
	notices  []string

	// Pending form input survives a failed submission so the user can retry.
	mealForm    models.MealForm
	workoutForm models.WorkoutForm
}

// NewApp opens the local database and wires the API client, session and
// feature services for an interactive session on stdin/stdout.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.DBPath); err != nil {
		log.Error(ctx, "error preparing database directory", "error", err)
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DSN())
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	a, err := newApp(c, credentials.NewSQLiteStore(db), log, os.Stdin, os.Stdout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.db = db
	return a, nil
}

func newApp(c *config.Config, store credentials.Store, log logging.Logger, in io.Reader, out io.Writer, opts ...client.Option) (*App, error) {
	a := &App{
		config:      c,
		log:         log,
		registry:    prometheus.NewRegistry(),
		guard:       guard.New(common.AuthPath),
		reader:      bufio.NewReader(in),
		out:         out,
		location:    homePath,
		mealForm:    models.NewMealForm(),
		workoutForm: models.WorkoutForm{},
	}

	metrics := client.NewMetrics(a.registry)
	opts = append([]client.Option{
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log),
		client.WithMiddleware(
			client.Logging(log),
			client.Instrument(metrics),
			client.Unauthorized(store, log, a.onExpired),
			client.BearerAuth(store, log),
		),
	}, opts...)

	api, err := client.New(c.APIURL, opts...)
	if err != nil {
		return nil, err
	}

	a.session = session.NewManager(api, store,
		session.WithLogger(log.With("component", "session")),
		session.WithVerifyTimeout(c.VerifyTimeout),
	)
	a.nutrition = services.NewNutritionTracker(api, a.session, services.WithLogger(log.With("component", "nutrition")))
	a.workouts = services.NewWorkoutLibrary(api, a.session, services.WithLogger(log.With("component", "workouts")))

	a.session.OnChange(func(status session.Status, _ *models.User) {
		if status != session.Unauthenticated {
			return
		}
		a.nutrition.Reset()
		a.workouts.Reset()
		a.mu.Lock()
		a.location = common.AuthPath
		a.mu.Unlock()
	})

	return a, nil
}

// Start restores the stored session. Verification continues in the
// background; Ready is closed when it finishes.
func (a *App) Start(ctx context.Context) {
	a.ready = a.session.Start(ctx)
}

// Ready blocks until startup verification is over or ctx is done.
func (a *App) Ready(ctx context.Context) {
	if a.ready == nil {
		return
	}
	select {
	case <-a.ready:
	case <-ctx.Done():
	}
}

// Run starts the session and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to HealthUp CLI (type 'help' for commands)")
	a.Start(ctx)
	if a.session.Status() == session.Unauthenticated {
		fmt.Fprintln(a.out, "You are not logged in. Use 'login', 'register' or 'google'.")
	}
	runREPL(ctx, a, a.prompt, a.reader)
}

// PrintStatus verifies the stored session and prints who is signed in.
func (a *App) PrintStatus(ctx context.Context) error {
	a.Start(ctx)
	a.Ready(ctx)

	if !a.isLoggedIn() {
		a.println("Not logged in.")
		return nil
	}
	return a.Whoami(ctx)
}

// SignOut ends the stored session without verifying it first.
func (a *App) SignOut(ctx context.Context) error {
	a.session.Restore(ctx)
	return a.Logout(ctx)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.Status() == session.Authenticated
}

// onExpired runs after the HTTP layer saw a 401 and cleared the store.
func (a *App) onExpired(ctx context.Context) {
	if a.session.Expire(ctx) {
		a.notify(msgSessionExpired)
	}
}

func (a *App) notify(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notices = append(a.notices, msg)
}

func (a *App) pendingNotices() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.notices
	a.notices = nil
	return n
}

func (a *App) prompt() string {
	a.mu.Lock()
	loc := a.location
	a.mu.Unlock()

	who := "guest"
	switch a.session.Status() {
	case session.Authenticated:
		if u := a.session.User(); u != nil {
			who = u.DisplayName()
		}
	case session.Unknown:
		who = "..."
	}
	return fmt.Sprintf("(%s %s)", who, loc)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
