// Package client is the HTTP adapter between the CLI and the HealthUp REST API.
//
// # Overview
//
// The package provides:
//  1. API contracts (AuthAPI, NutritionAPI, WorkoutAPI) consumed by the
//     session manager and the feature services.
//  2. HTTPClient, a concrete implementation that builds JSON requests,
//     runs them through a middleware chain and normalises every response
//     shape into one typed record per endpoint.
//  3. Middlewares composed at construction time: BearerAuth attaches the
//     stored token, Unauthorized clears the stored session on any 401 and
//     fires a callback, Instrument records Prometheus metrics, Logging
//     traces requests at debug level.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, which matches the sentinel
// errors ErrUnauthorized, ErrNotFound and ErrUnavailable via errors.Is.
// Transport failures and timeouts wrap ErrUnavailable.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. Every call takes a context and
// additionally applies the configured per-request timeout.
package client
