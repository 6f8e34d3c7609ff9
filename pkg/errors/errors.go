package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTermNotFound means a query referenced a term the dictionary has
	// never seen. Deliberately distinct from a term that exists with an
	// empty posting list.
	ErrTermNotFound = errors.New("term not found")

	ErrInvalidInput       = errors.New("invalid input")
	ErrMalformedPositions = errors.New("malformed token positions")
	ErrTermTooLong        = errors.New("term exceeds front-coding length limit")
	ErrCorruptDictionary  = errors.New("corrupt dictionary file")
	ErrCorruptSegment     = errors.New("corrupt segment file")
	ErrIndexNotReady      = errors.New("index not built")
	ErrInternal           = errors.New("internal error")
	ErrTimeout            = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrTermNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedPositions),
		errors.Is(err, ErrTermTooLong):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
