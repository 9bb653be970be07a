// Package api implements the LocaTrova backend client: the HTTP transport
// with token refresh, the retry/timeout resilience layer, and the
// per-resource request modules built on top of them.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Kind partitions every failure the client can surface.  Classification
// happens exactly once, at the outer boundary of a request; afterwards the
// error flows upward unchanged.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNetwork        Kind = "network"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindServer         Kind = "server"
	KindTimeout        Kind = "timeout"
	KindUnknown        Kind = "unknown"
)

// Error is the typed failure value returned by every client operation.  The
// HTTP status code is carried end-to-end so retry gating and classification
// can read structure instead of scraping message text.
type Error struct {
	Kind       Kind
	Message    string
	Code       string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewValidationError builds a Validation error annotated with the offending
// field.  Validation errors are raised before any network call and are never
// retried.
func NewValidationError(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Code:    "invalid_" + field,
		Details: map[string]any{"field": field},
	}
}

// statusKind maps an HTTP status code to a taxonomy kind.
func statusKind(status int) Kind {
	switch {
	case status == 400:
		return KindValidation
	case status == 401:
		return KindAuthentication
	case status == 403:
		return KindAuthorization
	case status == 404:
		return KindNotFound
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

// fromStatus builds an Error for a non-2xx response, preferring the
// server-provided message when one exists.
func fromStatus(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: statusKind(status), Message: message, StatusCode: status}
}

// clientErrPattern is the deliberately coarse "4xx somewhere in the text"
// heuristic kept as the last-resort retry gate for errors of foreign origin.
var clientErrPattern = regexp.MustCompile(`4\d{2}`)

// retryable reports whether an error is worth another attempt.  Structured
// information wins: a carried 4xx status (or a Validation/Authorization/
// NotFound kind) is terminal, while Network, Timeout and Server failures are
// transient.  Errors without structure fall back to the message heuristic.
func retryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return false
		}
		switch apiErr.Kind {
		case KindValidation, KindAuthentication, KindAuthorization, KindNotFound:
			return false
		}
		return true
	}
	return !clientErrPattern.MatchString(err.Error())
}

// Classify converts an arbitrary error into an *Error exactly once.  Already
// classified errors pass through; known structural causes (deadline, net
// errors) map directly; anything else goes through the message-substring
// fallback the dashboard historically used.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "the request took too long, please retry"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Message: "the request took too long, please retry"}
		}
		return &Error{Kind: KindNetwork, Message: "could not reach the server, check your connection"}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return &Error{Kind: KindTimeout, Message: "the request took too long, please retry"}
	case strings.Contains(msg, "network"):
		return &Error{Kind: KindNetwork, Message: "could not reach the server, check your connection"}
	case strings.Contains(msg, "401"), strings.Contains(msg, "unauthorized"):
		return &Error{Kind: KindAuthentication, Message: "your session has expired, please log in again", StatusCode: 401}
	case strings.Contains(msg, "403"), strings.Contains(msg, "forbidden"):
		return &Error{Kind: KindAuthorization, Message: "you are not allowed to perform this action", StatusCode: 403}
	case strings.Contains(msg, "404"), strings.Contains(msg, "not found"):
		return &Error{Kind: KindNotFound, Message: "the requested resource was not found", StatusCode: 404}
	case strings.Contains(msg, "400"), strings.Contains(msg, "bad request"):
		return &Error{Kind: KindValidation, Message: "the request was rejected as invalid", StatusCode: 400}
	case strings.Contains(msg, "500"), strings.Contains(msg, "internal server"):
		return &Error{Kind: KindServer, Message: "the server hit an internal error, please retry later", StatusCode: 500}
	default:
		return &Error{Kind: KindUnknown, Message: err.Error()}
	}
}
