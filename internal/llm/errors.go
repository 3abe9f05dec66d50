package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/mohammad-safakhou/resonance/config"
)

// ErrUnknownModel is a configuration error: the model is not in the catalog.
var ErrUnknownModel = config.ErrUnknownModel

// ErrEmptyResponse is returned when the provider answers without choices.
var ErrEmptyResponse = errors.New("completion response has no choices")

// StatusError is a non-2xx answer from the completion endpoint, or an error
// object embedded in a 2xx envelope.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openrouter: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("openrouter: status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Class is the retry classification of a transport error.
type Class int

const (
	Fatal Class = iota
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Classify decides whether err is worth another attempt. Timeouts and
// throttling/server-side statuses are retryable; configuration, auth,
// validation and decode failures are fatal. Caller cancellation is fatal;
// callers must check their own context before trusting a DeadlineExceeded.
func Classify(err error) Class {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, ErrUnknownModel) || errors.Is(err, context.Canceled) {
		return Fatal
	}
	var se *StatusError
	if errors.As(err, &se) {
		if retryableStatus(se.StatusCode) {
			return Retryable
		}
		return Fatal
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Retryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}
	return Fatal
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return code >= 500 && code <= 599
}
