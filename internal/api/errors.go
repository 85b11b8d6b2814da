package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
//
// Error repeats Message: the folders persistence endpoint is read by
// clients that look for "error" rather than "message".
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status    int
	Code      string `json:"code" doc:"Machine-readable error code"`
	Message   string `json:"message" doc:"Human-readable error message"`
	ErrorText string `json:"error" doc:"Same as message"`
	Details   any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func newAPIError(status int, code, message string, details any) *APIError {
	return &APIError{
		status:    status,
		Code:      code,
		Message:   message,
		ErrorText: message,
		Details:   details,
	}
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return newAPIError(domainErr.HTTPStatus(), string(domainErr.Code), domainErr.Message, domainErr.Details)
			}
		}

		// huma reports request validation problems as a list of errors.
		var details []string
		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}

		apiErr := newAPIError(status, statusToCode(status), message, nil)
		if len(details) > 0 && status < http.StatusInternalServerError {
			apiErr.Details = details
		}
		return apiErr
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusRequestEntityTooLarge:
		return string(domainerrors.CodeTooLarge)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return codeRateLimited
	case http.StatusBadGateway:
		return string(domainerrors.CodeBatch)
	default:
		return string(domainerrors.CodeInternal)
	}
}
