// Package apperrors holds the error values shared by repositories, services
// and HTTP handlers.
package apperrors

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string            `json:"field"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// DoubleBookingError is returned when a slot is already taken and the caller
// did not ask to book it anyway.
type DoubleBookingError struct {
	Date      string          `json:"scheduled_date"`
	Time      string          `json:"scheduled_time"`
	Conflicts []*models.Order `json:"conflicts"`
}

func (e *DoubleBookingError) Error() string {
	return fmt.Sprintf("%d order(s) already scheduled at %s %s", len(e.Conflicts), e.Date, e.Time)
}

// postgres error classes we translate
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

// FromPostgres maps constraint violations to ErrConflict and malformed ids
// to ErrNotFound, since no row can have them. Everything else is wrapped
// with msg.
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqForeignKeyViolation:
			return errors.Wrapf(ErrConflict, "%s: %s", msg, pqErr.Message)
		case pqInvalidText:
			return errors.Wrapf(ErrNotFound, "%s: %s", msg, pqErr.Message)
		}
	}
	return errors.Wrap(err, msg)
}
