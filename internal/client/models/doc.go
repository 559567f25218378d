// Package models defines the client-side records of the HealthUp CLI: the
// signed-in user (the session record), nutrition entries and rollups, and
// workouts, together with the form types that validate user input before
// anything reaches the network.
package models
