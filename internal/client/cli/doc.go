// Package cli provides the interactive HealthUp command-line client.
//
// It wires configuration, the local credential store, the REST client and
// the feature services into a REPL. On start the stored session is
// restored and verified in the background; commands that need a session go
// through the route guard, which sends a signed-out user to the login
// prompt and replays the command after a successful sign-in.
//
// Key features:
//   - register, login, google, logout, whoami, profile
//   - meals, show, log, edit, quick, delete, stats for nutrition tracking
//   - workouts, create for the workout library
//   - metrics for client-side request counters
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
