package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	println(args ...any)
	isLoggedIn() bool
	pendingNotices() []string
	authorize(ctx context.Context, route, line string) bool
	takeReturn() string

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	GoogleLogin(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Profile(ctx context.Context) error

	Meals(ctx context.Context) error
	ShowMeal(ctx context.Context, args []string) error
	LogMeal(ctx context.Context) error
	EditMeal(ctx context.Context, args []string) error
	QuickAdd(ctx context.Context, args []string) error
	DeleteMeal(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error

	Workouts(ctx context.Context) error
	CreateWorkout(ctx context.Context) error

	Metrics(ctx context.Context) error
}

// routes maps guarded commands to the view they open.
var routes = map[string]string{
	"whoami":   "/profile",
	"profile":  "/profile",
	"meals":    "/nutrition",
	"show":     "/nutrition",
	"log":      "/nutrition",
	"edit":     "/nutrition",
	"quick":    "/nutrition",
	"delete":   "/nutrition",
	"stats":    "/nutrition",
	"workouts": "/workouts",
	"create":   "/workouts",
}

const (
	helpGuest  = "Available commands: register, login, google [token], metrics, exit"
	helpSigned = "Available commands: whoami, profile, meals, show <id>, log, edit <id>, quick [n|name], delete <id>, stats [days], workouts, create, metrics, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the HealthUp CLI.
//
// Notices queued since the last command (such as an expired session) are
// printed before each prompt. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Command handlers report their own errors; the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		for _, n := range a.pendingNotices() {
			a.println(n)
		}
		a.println(fmt.Sprintf("healthup %s> ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		if quit := execLine(ctx, a, line); quit {
			return
		}
	}
}

// execLine runs a single command line and reports whether the REPL should
// stop. After a successful sign-in the command that was redirected to the
// sign-in prompt, if any, is run again.
func execLine(ctx context.Context, a execIface, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	if route, ok := routes[cmd]; ok && !a.authorize(ctx, route, line) {
		return false
	}

	var (
		err    error
		signIn bool
	)

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			a.println(helpSigned)
		} else {
			a.println(helpGuest)
		}

	case "register":
		err, signIn = a.Register(ctx), true
	case "login":
		err, signIn = a.Login(ctx), true
	case "google":
		err, signIn = a.GoogleLogin(ctx, args), true
	case "logout":
		err = a.Logout(ctx)

	case "whoami":
		err = a.Whoami(ctx)
	case "profile":
		err = a.Profile(ctx)

	case "meals":
		err = a.Meals(ctx)
	case "show":
		err = a.ShowMeal(ctx, args)
	case "log":
		err = a.LogMeal(ctx)
	case "edit":
		err = a.EditMeal(ctx, args)
	case "quick":
		err = a.QuickAdd(ctx, args)
	case "delete":
		err = a.DeleteMeal(ctx, args)
	case "stats":
		err = a.Stats(ctx, args)

	case "workouts":
		err = a.Workouts(ctx)
	case "create":
		err = a.CreateWorkout(ctx)

	case "metrics":
		err = a.Metrics(ctx)

	case "exit", "quit":
		a.println("Bye!")
		return true

	default:
		a.println("Unknown command:", cmd)
	}

	if signIn && err == nil {
		if next := a.takeReturn(); next != "" {
			return execLine(ctx, a, next)
		}
	}
	return false
}
