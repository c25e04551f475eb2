package services

import (
	"errors"
	"fmt"

	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

var (
	ErrForbidden        = errors.New("you do not have permission to perform this action")
	ErrIdentityConflict = errors.New("this LinkedIn account is already linked to another user")
	ErrInvalidState     = errors.New("invalid or expired state parameter")
	ErrStateReplayed    = errors.New("state parameter has already been used")
)

// NotFoundError reports a missing resource by name, e.g. "Product" or "Review".
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ValidationError carries per-field problems back to the client.
type ValidationError struct {
	Details []utils.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 1 {
		return e.Details[0].Message
	}
	return fmt.Sprintf("%d validation errors", len(e.Details))
}

func invalid(field, message string) error {
	return &ValidationError{Details: []utils.FieldError{{Field: field, Message: message}}}
}

// ProviderError wraps a failed call to the identity provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("linkedin %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
