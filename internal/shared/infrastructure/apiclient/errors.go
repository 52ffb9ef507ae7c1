package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrCircuitOpen is returned while the circuit breaker rejects calls after
// repeated failures.
var ErrCircuitOpen = errors.New("api unavailable: circuit breaker is open")

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the server's error or detail text, if it sent one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// errorMessage extracts a human message from an error body. It understands
// {"error": "..."}, {"detail": "..."}, {"detail": [{"msg": "..."}]} and
// {"message": "..."}; anything else falls back to the trimmed body.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		if body[0] == '<' {
			return ""
		}
		return truncate(string(body), 200)
	}

	for _, raw := range []json.RawMessage{payload.Error, payload.Detail} {
		if msg := rawMessage(raw); msg != "" {
			return msg
		}
	}
	return payload.Message
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
