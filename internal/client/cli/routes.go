package cli

import (
	"context"

	"github.com/dmitrijs2005/healthup/internal/client/guard"
)

// authorize runs the route guard for a command. While the session status is
// still unknown it waits for startup verification. A redirect remembers the
// command line so it can be replayed after sign-in.
func (a *App) authorize(ctx context.Context, route, line string) bool {
	d := a.guard.Evaluate(a.session.Status(), route)
	if d.Outcome == guard.Loading {
		a.println("Checking session...")
		a.Ready(ctx)
		d = a.guard.Evaluate(a.session.Status(), route)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch d.Outcome {
	case guard.Render:
		a.location = d.Location
		return true
	case guard.Redirect:
		a.location = d.Location
		a.returnTo = line
		a.notices = append(a.notices, d.Notice)
		return false
	default:
		return false
	}
}

// takeReturn hands out the remembered command line once.
func (a *App) takeReturn() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	line := a.returnTo
	a.returnTo = ""
	return line
}

func (a *App) setLocation(loc string) {
	a.mu.Lock()
	a.location = loc
	a.mu.Unlock()
}
