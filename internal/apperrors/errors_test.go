package apperrors

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("quantity", "quantity must be positive")

	assert.Equal(t, "quantity: quantity must be positive", err.Error())
	assert.Equal(t, "quantity must be positive", err.Details["quantity"])
	assert.True(t, IsValidation(errors.Wrap(err, "create tire")))
	assert.False(t, IsValidation(ErrNotFound))
}

func TestFromPostgres(t *testing.T) {
	unique := &pq.Error{Code: "23505", Message: "duplicate key"}
	fk := &pq.Error{Code: "23503", Message: "violates foreign key"}
	other := &pq.Error{Code: "42601", Message: "syntax error"}
	malformed := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	assert.Nil(t, FromPostgres(nil, "insert"))
	assert.True(t, errors.Is(FromPostgres(unique, "insert customer"), ErrConflict))
	assert.True(t, errors.Is(FromPostgres(fk, "insert vehicle"), ErrConflict))
	assert.False(t, errors.Is(FromPostgres(other, "insert"), ErrConflict))
	assert.Contains(t, FromPostgres(other, "insert").Error(), "insert")
	assert.True(t, errors.Is(FromPostgres(malformed, "get customer abc"), ErrNotFound))
	assert.False(t, errors.Is(FromPostgres(other, "insert"), ErrNotFound))
}
