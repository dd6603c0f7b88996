package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorMatchesSentinelOfItsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", validationError("tags", "tag %s is listed more than once", "x"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "wrapped: tags: tag x is listed more than once", err.Error())
}

func TestTranslateStoreError(t *testing.T) {
	assert.NoError(t, translateStoreError(nil, "tag"))
	assert.ErrorIs(t, translateStoreError(gorm.ErrDuplicatedKey, "tag"), ErrConflict)
	assert.ErrorIs(t, translateStoreError(gorm.ErrForeignKeyViolated, "tag"), ErrConflict)

	other := errors.New("connection reset")
	assert.Same(t, other, translateStoreError(other, "tag"))

	notFoundErr := notFound("recipe", "gone")
	assert.ErrorIs(t, translateStoreError(notFoundErr, "recipe"), ErrNotFound)
}

func TestMembershipOutcomeString(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "not_present", NotPresent.String())
	assert.Equal(t, "unknown", MembershipOutcome(0).String())
}
