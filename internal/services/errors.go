package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrResolution marks a candidate URL that did not resolve to a catalog
	// entry, or a resolver that could not be reached.
	ErrResolution = errors.New("resolution error")
	// ErrPermissionOrConfigUnavailable marks a crowd-sync precondition that
	// failed to read or evaluated to disabled.
	ErrPermissionOrConfigUnavailable = errors.New("permission or config unavailable")
	// ErrPublishTransport marks a failed crowd-sync request.
	ErrPublishTransport = errors.New("publish transport error")
	// ErrIllegalTransition marks a user action the current state forbids.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrSubmissionInFlight marks a second submission while one is running.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrValidation marks caller input rejected before any I/O.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing local record.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrResolution
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the status the HTTP API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrSubmissionInFlight), errors.Is(err, ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, ErrResolution):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
