package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrTenantNotFound = &AppError{
		Code:       "TENANT_NOT_FOUND",
		Message:    "Tenant not found",
		StatusCode: 404,
	}

	ErrEndpointNotFound = &AppError{
		Code:       "ENDPOINT_NOT_FOUND",
		Message:    "Webhook endpoint not found",
		StatusCode: 404,
	}

	ErrSecretNotFound = &AppError{
		Code:       "SECRET_NOT_FOUND",
		Message:    "Signing secret not found",
		StatusCode: 404,
	}

	ErrSSOKeyNotFound = &AppError{
		Code:       "SSO_KEY_NOT_FOUND",
		Message:    "SSO signing key not found",
		StatusCode: 404,
	}
)
