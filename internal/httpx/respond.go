// Package httpx holds the JSON envelope helpers shared by middleware and httpapi.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrEthical07/authkeep"
)

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
	RetryAfter int64    `json:"retryAfter,omitempty"`
	Stack      string   `json:"stack,omitempty"`
}

// JSON writes payload with status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Error translates err into the failure envelope. When debug is set the cause chain
// is included as "stack".
func Error(w http.ResponseWriter, err error, debug bool) {
	e := authkeep.AsError(err)
	if e == nil {
		e = authkeep.NewError(authkeep.KindInternal, "Internal Server Error")
	}
	status := e.Status
	if status == 0 {
		status = e.Kind.Status()
	}

	body := ErrorBody{Message: e.Message, Errors: e.Details}
	if status == http.StatusInternalServerError && body.Message == "" {
		body.Message = "Internal Server Error"
	}
	if debug && e.Err != nil {
		body.Stack = causeChain(e.Err)
	}
	JSON(w, status, body)
}

// RateLimited writes the 429 envelope and Retry-After header.
func RateLimited(w http.ResponseWriter, message string, retryAfterSeconds int64) {
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds, 10))
	JSON(w, http.StatusTooManyRequests, ErrorBody{Message: message, RetryAfter: retryAfterSeconds})
}

func causeChain(err error) string {
	out := err.Error()
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(next) {
		out += "\n  caused by: " + next.Error()
	}
	return out
}
