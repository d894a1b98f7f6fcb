package leaderboard

import (
	"errors"
	"net/http"
)

// Kind classifies an analysis failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConfiguration
	KindDependencyUnavailable
	KindTimeout
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	case KindTimeout:
		return "timeout"
	case KindExecution:
		return "execution"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the status code returned to clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type surfaced by the analysis use case.
// Message is safe to show to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrRepositoryURLRequired = Validation("Repository URL is required")
	ErrInvalidBody           = Validation("Invalid JSON body")
	ErrTokenNotConfigured    = &Error{
		Kind:    KindConfiguration,
		Message: "GitHub token not configured. Please set GITHUB_TOKEN environment variable.",
	}
)

// Runner sentinels, converted to *Error by the service.
var (
	ErrCommandNotFound = errors.New("leaderboard command not found")
	ErrRunTimeout      = errors.New("leaderboard run timed out")
)
