package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable error codes returned in APIResponse.Code.
const (
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeDeviceNotRegistered   = "DEVICE_NOT_REGISTERED"
	CodeNotFound              = "NOT_FOUND"
	CodeDataMissing           = "DATA_MISSING"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeRateLimited           = "RATE_LIMITED"
	CodePredictionUnavailable = "PREDICTION_UNAVAILABLE"
	CodePredictionMalformed   = "PREDICTION_MALFORMED"
	CodeInternal              = "INTERNAL"
)

// AppError is an error carrying the HTTP status and code it is rendered with.
type AppError struct {
	Code   string
	Status int
	Err    error
}

var (
	ErrUnauthorized          = &AppError{CodeUnauthorized, http.StatusUnauthorized, errors.New("unauthorized")}
	ErrForbidden             = &AppError{CodeForbidden, http.StatusForbidden, errors.New("forbidden")}
	ErrDeviceNotRegistered   = &AppError{CodeDeviceNotRegistered, http.StatusForbidden, errors.New("device not registered")}
	ErrNotFound              = &AppError{CodeNotFound, http.StatusNotFound, errors.New("not found")}
	ErrDataMissing           = &AppError{CodeDataMissing, http.StatusUnprocessableEntity, errors.New("data missing")}
	ErrInvalidRequest        = &AppError{CodeInvalidRequest, http.StatusBadRequest, errors.New("invalid request")}
	ErrRateLimited           = &AppError{CodeRateLimited, http.StatusTooManyRequests, errors.New("too many requests")}
	ErrPredictionUnavailable = &AppError{CodePredictionUnavailable, http.StatusBadGateway, errors.New("prediction service unavailable")}
	ErrPredictionMalformed   = &AppError{CodePredictionMalformed, http.StatusBadGateway, errors.New("prediction response malformed")}
	ErrInternal              = &AppError{CodeInternal, http.StatusInternalServerError, errors.New("internal error")}
)

func (e *AppError) Error() string {
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so wrapped errors compare
// equal to the sentinel they were built from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WrapError returns a copy of base with a more specific message.
func WrapError(base *AppError, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:   base.Code,
		Status: base.Status,
		Err:    fmt.Errorf("%s: %s", base.Err, fmt.Sprintf(format, args...)),
	}
}

// StatusOf returns the HTTP status and code for err; unknown errors are internal.
func StatusOf(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code
	}
	return http.StatusInternalServerError, CodeInternal
}

// CallAppError renders err with the status and code of its AppError.
// Errors that are not AppErrors are reported as INTERNAL without their text.
func CallAppError(c *gin.Context, msg string, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		err = ErrInternal
	}
	status, code := StatusOf(err)
	callError(c, status, code, APIErrorParams{Msg: msg, Err: err})
}
