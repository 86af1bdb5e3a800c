package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// DefaultErrorMessage is shown when nothing better is known about a failure.
const DefaultErrorMessage = "Oops! Something went wrong!"

// ErrUnauthorized matches any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is makes 401 responses match ErrUnauthorized.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

func newError(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = DefaultErrorMessage
	}
	return &Error{Status: status, Message: msg}
}

// ErrorMessage renders err for the user. API errors show the server's
// message; anything else shows its text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
