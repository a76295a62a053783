package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrModelNotFound marks a surface reporting that the model does not exist there.
	ErrModelNotFound = errors.New("model not found")
	// ErrInvalidResponse marks a reply without candidates[0].content.parts[0].text.
	ErrInvalidResponse = errors.New("invalid response format")
)

// ConfigurationError reports credentials missing from the environment.
type ConfigurationError struct{ Missing []string }

func (e *ConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// UpstreamUnavailableError is returned once every model in the fallback chain has failed.
// Failures holds one entry per attempt, in attempt order.
type UpstreamUnavailableError struct{ Failures []string }

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("all Gemini models failed (%d attempts)", len(e.Failures))
}

// GeminiHTTPError is a non-2xx reply from a generateContent call.
type GeminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *GeminiHTTPError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
}

func (e *GeminiHTTPError) Is(target error) bool {
	return target == ErrModelNotFound && e.StatusCode == http.StatusNotFound
}
