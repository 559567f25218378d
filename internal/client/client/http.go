package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/healthup/internal/logging"
)

const maxBodySize = 4 << 20

// HTTPClient talks to the REST API rooted at baseURL (e.g.
// "http://localhost:8080/api/v1").
type HTTPClient struct {
	baseURL string
	doer    Doer
	timeout time.Duration
	log     logging.Logger
}

type Option func(*options)

type options struct {
	doer        Doer
	middlewares []Middleware
	timeout     time.Duration
	log         logging.Logger
}

// WithDoer replaces the default cookie-aware *http.Client.
func WithDoer(d Doer) Option {
	return func(o *options) { o.doer = d }
}

func WithMiddleware(mws ...Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	o := options{log: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.doer == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		o.doer = &http.Client{Jar: jar}
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    Chain(o.doer, o.middlewares...),
		timeout: o.timeout,
		log:     o.log,
	}, nil
}

type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

// do sends the call and returns the body of a 2xx response. Non-2xx
// responses become *APIError.
func (c *HTTPClient) do(ctx context.Context, cl call) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx = withRoute(ctx, cl.route)

	var reader io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: send request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, body, &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(body),
			Body:    body,
		}
	}
	return resp.StatusCode, body, nil
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	switch e := env.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}

// decodeInto unmarshals body into v, reporting malformed payloads as
// ErrUnexpectedResponse.
func decodeInto(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}
