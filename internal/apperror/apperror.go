// Package apperror carries the failure class of a service error so the HTTP
// layer can choose a status code without inspecting messages.
package apperror

import (
	"errors"
	"net/http"
)

type Code string

const (
	BadRequest Code = "BAD_REQUEST"
	NotFound   Code = "NOT_FOUND"
	Conflict   Code = "CONFLICT"
	Internal   Code = "INTERNAL"
)

var httpStatus = map[Code]int{
	BadRequest: http.StatusBadRequest,
	NotFound:   http.StatusNotFound,
	Conflict:   http.StatusConflict,
	Internal:   http.StatusInternalServerError,
}

// AppError is a client-facing error. Its message is safe to return in a
// response body.
type AppError struct {
	code  Code
	msg   string
	cause error
}

func New(code Code, msg string) *AppError {
	return &AppError{code: code, msg: msg}
}

// Wrap returns an AppError whose message ends with the cause's text. The
// cause stays reachable through errors.Is and errors.As.
func Wrap(code Code, msg string, cause error) *AppError {
	return &AppError{code: code, msg: msg, cause: cause}
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *AppError) Unwrap() error { return e.cause }
func (e *AppError) Code() Code    { return e.code }

// HTTPStatus maps the code to a response status; unknown codes are 500.
func (e *AppError) HTTPStatus() int {
	if s, ok := httpStatus[e.code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code Code) bool {
	ae, ok := As(err)
	return ok && ae.code == code
}
