package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"llmobservatory/internal/apierr"
)

func TestIsUniqueViolationMatchesCode23505(t *testing.T) {
	err := &pgconn.PgError{Code: uniqueViolationCode, Message: "duplicate key"}
	assert.True(t, isUniqueViolation(err))
}

func TestIsUniqueViolationRejectsOtherCodes(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", Message: "fk violation"}
	assert.False(t, isUniqueViolation(err))
}

func TestIsUniqueViolationRejectsNonPgError(t *testing.T) {
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(fmt.Errorf("wrapped: %w", errors.New("boom"))))
}

func TestCopyErrPassesThroughUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolationCode}
	err := copyErr("write spans", pgErr)
	assert.Same(t, pgErr, err)
}

func TestCopyErrWrapsOtherFailures(t *testing.T) {
	err := copyErr("write spans", errors.New("connection reset"))
	assert.Equal(t, apierr.KindQuery, apierr.KindOf(err))
}
