package models

import "errors"

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrorType categorizes API error responses for clients.
type ErrorType string

const (
	GeneralErrorType    ErrorType = "general"
	ValidationErrorType ErrorType = "validation"
	NotFoundErrorType   ErrorType = "not_found"
	AuthErrorType       ErrorType = "auth"
	ConflictErrorType   ErrorType = "conflict"
)
