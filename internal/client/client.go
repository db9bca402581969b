// Package client is the data-access layer every RentSnap feature reads
// through. It signs requests with the session token, maps failures onto typed
// errors, and keeps a short-lived read cache that mutations invalidate.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"rentsnap/internal/logger"
	"rentsnap/internal/session"
)

const (
	DefaultTTL     = 30 * time.Second
	defaultTimeout = 15 * time.Second
	serviceName    = "rentsnap-api"
)

type Client struct {
	baseURL string
	http    *http.Client
	session atomic.Pointer[session.Session]
	cache   Cache
	ttl     time.Duration

	flights singleflight.Group
	// generation is bumped by every invalidation so that reads started before
	// a mutation neither share a flight with later reads nor repopulate the cache.
	generation atomic.Uint64
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New returns a client for the backend at baseURL, e.g. "http://localhost:8000/api".
// A nil session behaves like an anonymous one.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if sess == nil {
		sess = session.Anonymous()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   NewMemoryCache(),
		ttl:     DefaultTTL,
	}
	c.session.Store(sess)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *session.Session { return c.session.Load() }

// UseSession swaps the credentials, e.g. after login. The cache is cleared
// so the new user never sees the previous user's reads.
func (c *Client) UseSession(ctx context.Context, sess *session.Session) {
	if sess == nil {
		sess = session.Anonymous()
	}
	c.session.Store(sess)
	c.Clear(ctx)
}

type freshKey struct{}

// FreshRead marks ctx so that Get skips the cached copy and refreshes it
// from the backend.
func FreshRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func IsFreshRead(ctx context.Context) bool {
	v, _ := ctx.Value(freshKey{}).(bool)
	return v
}

// CacheKey is the exact path followed by the encoded, sorted query.
func CacheKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// BasePath returns the collection a path belongs to: "/requests/12/confirm_handover/"
// becomes "/requests/".
func BasePath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return "/" + trimmed[:i+1]
	}
	return "/" + trimmed
}

// Get decodes the resource at path into out, serving it from the cache while
// the entry is younger than the TTL.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	key := CacheKey(path, params)
	fresh := IsFreshRead(ctx)

	if !fresh {
		if body, ok := c.cache.Get(ctx, key); ok {
			logger.DebugContext(ctx, "cache hit", "key", key)
			return decode(body, out)
		}
	}

	gen := c.generation.Load()
	flight := strconv.FormatUint(gen, 10) + "|" + strconv.FormatBool(fresh) + "|" + key
	// The shared call outlives any one caller; the HTTP client timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(flight, func() (any, error) {
		body, err := c.do(shared, http.MethodGet, path, params, "", nil)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.cache.Set(shared, key, body, c.ttl)
		}
		return body, nil
	})
	select {
	case <-ctx.Done():
		return fmt.Errorf("GET %s: %w", path, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return decode(res.Val.([]byte), out)
	}
}

// Mutate sends a write and decodes the answer into out. It is never cached.
// Every cached read under the mutated resource's collection is dropped before
// Mutate returns, whether the write succeeded or not.
func (c *Client) Mutate(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	resp, err := c.do(ctx, method, path, nil, "application/json", payload)
	c.InvalidatePrefix(ctx, BasePath(path))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Upload posts a single file as multipart/form-data.
func (c *Client) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("read upload %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, path, nil, mw.FormDataContentType(), buf.Bytes())
	c.InvalidatePrefix(ctx, BasePath(path))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// InvalidatePrefix drops every cached read whose key starts with prefix.
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) {
	c.generation.Add(1)
	c.cache.DeletePrefix(ctx, prefix)
}

func (c *Client) Clear(ctx context.Context) {
	c.generation.Add(1)
	c.cache.Clear(ctx)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, contentType string, payload []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" && payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	sess := c.session.Load()
	if tok := sess.Token(); tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}

	op := method + " " + path
	logger.ExternalServiceCall(ctx, serviceName, op)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		nerr := &NetworkError{Method: method, Path: path, Err: err}
		logger.ExternalServiceResult(ctx, serviceName, op, nerr)
		return nil, nerr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		nerr := &NetworkError{Method: method, Path: path, Err: err}
		logger.ExternalServiceResult(ctx, serviceName, op, nerr)
		return nil, nerr
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := sess.Destroy(); err != nil {
			logger.WarnContext(ctx, "destroying session failed", "error", err)
		}
		c.Clear(ctx)
		herr := parseError(method, path, resp.StatusCode, body)
		logger.ExternalServiceResult(ctx, serviceName, op, herr)
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, herr)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := parseError(method, path, resp.StatusCode, body)
		logger.ExternalServiceResult(ctx, serviceName, op, herr)
		return nil, herr
	}

	logger.ExternalServiceResult(ctx, serviceName, op, nil,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// List accepts both a bare JSON array and a paginated {"results": [...]} body.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return err
	}
	if page.Results == nil && !bytes.Equal(trimmed, []byte("null")) && !bytes.Contains(trimmed, []byte(`"results"`)) {
		return errors.New("expected a list or a paginated object")
	}
	*l = page.Results
	return nil
}
