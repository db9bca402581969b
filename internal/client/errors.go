package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"rentsnap/internal/domain"
)

// ErrUnauthenticated is returned after the backend rejected the session's
// credentials. The session has been destroyed by the time callers see it.
var ErrUnauthenticated = errors.New("unauthenticated")

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	// Code is the machine-readable error code, e.g. "code_mismatch".
	Code   string
	Fields map[string][]string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets callers test backend answers against the domain sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// NetworkError is a transport failure: the request never got an HTTP answer.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// parseError builds an HTTPError from a response body. Bodies are either
// {"detail": "...", "code": "..."} or a map of field name to messages.
func parseError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{Method: method, Path: path, StatusCode: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}
	for key, v := range raw {
		switch key {
		case "detail", "error", "message":
			var s string
			if json.Unmarshal(v, &s) == nil && e.Message == "" {
				e.Message = s
			}
		case "code":
			_ = json.Unmarshal(v, &e.Code)
		default:
			var msgs []string
			if json.Unmarshal(v, &msgs) != nil {
				var one string
				if json.Unmarshal(v, &one) != nil {
					continue
				}
				msgs = []string{one}
			}
			if e.Fields == nil {
				e.Fields = make(map[string][]string)
			}
			e.Fields[key] = msgs
		}
	}
	if e.Message == "" && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
		}
		e.Message = strings.Join(parts, "; ")
	}
	return e
}
