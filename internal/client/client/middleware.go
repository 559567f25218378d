package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/healthup/internal/client/credentials"
	"github.com/dmitrijs2005/healthup/internal/common"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

// Doer sends one HTTP request. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a Doer. Middlewares are applied in the order given to
// Chain, the first one being the outermost.
type Middleware func(next Doer) Doer

func Chain(d Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

type routeKey struct{}

func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFrom returns the route template of an outgoing request, e.g.
// "/nutrition/{id}", falling back to the URL path.
func RouteFrom(req *http.Request) string {
	if r, ok := req.Context().Value(routeKey{}).(string); ok {
		return r
	}
	return req.URL.Path
}

// BearerAuth reads the stored session on every request and attaches its
// token. Without a token the request goes out as is, relying on cookies.
func BearerAuth(store credentials.Store, log logging.Logger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			u, err := store.Load(req.Context())
			if err != nil {
				log.Warn(req.Context(), "cannot read stored credentials", "error", err)
			}
			if tok := u.BearerToken(); tok != "" {
				req = req.Clone(req.Context())
				req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
			}
			return next.Do(req)
		})
	}
}

// Unauthorized clears the stored session whenever any response is 401 and
// then runs onExpired. The response itself is passed through unchanged.
func Unauthorized(store credentials.Store, log logging.Logger, onExpired ...func(ctx context.Context)) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			ctx := context.WithoutCancel(req.Context())
			if cerr := store.Clear(ctx); cerr != nil {
				log.Error(ctx, "failed to clear credentials after 401", "error", cerr)
			}
			log.Info(ctx, "session rejected by server", "route", RouteFrom(req))
			for _, fn := range onExpired {
				fn(ctx)
			}
			return resp, nil
		})
	}
}

// Instrument records request counts and latencies per route.
func Instrument(m *Metrics) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)

			route := RouteFrom(req)
			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode)
			}
			m.requests.WithLabelValues(req.Method, route, code).Inc()
			m.duration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

func Logging(log logging.Logger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)
			if err != nil {
				log.Debug(req.Context(), "request failed", "method", req.Method, "route", RouteFrom(req), "error", err)
				return resp, err
			}
			log.Debug(req.Context(), "request done",
				"method", req.Method,
				"route", RouteFrom(req),
				"status", resp.StatusCode,
				"elapsed", time.Since(start))
			return resp, nil
		})
	}
}
