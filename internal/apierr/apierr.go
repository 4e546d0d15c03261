// internal/apierr/apierr.go
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeBadRequest = "BAD_REQUEST"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

// Error is a classified failure that carries the HTTP status it maps to.
type Error struct {
	Status  int
	Code    string
	Err     error
	Details interface{}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, errors.New(message))
}

func BadRequestf(format string, args ...interface{}) *Error {
	return BadRequest(fmt.Sprintf(format, args...))
}

// Validation is a BadRequest with per-field details.
func Validation(message string, details interface{}) *Error {
	e := New(http.StatusBadRequest, CodeValidation, errors.New(message))
	e.Details = details
	return e
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(message))
}

func NotFoundf(format string, args ...interface{}) *Error {
	return NotFound(fmt.Sprintf(format, args...))
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// From classifies any error. Unclassified errors become internal errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// StatusOf returns the HTTP status for err, 500 when unclassified.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return From(err).Status
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsBadRequest(err error) bool {
	return StatusOf(err) == http.StatusBadRequest
}
