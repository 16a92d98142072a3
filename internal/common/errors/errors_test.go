package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_FindsWrappedAppError(t *testing.T) {
	base := NewBlacklistedError("42")
	wrapped := fmt.Errorf("join: %w", base)

	assert.True(t, HasCode(wrapped, ErrCodeBlacklisted))
	assert.False(t, HasCode(wrapped, ErrCodeTooNew))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeBlacklisted))
	assert.False(t, HasCode(nil, ErrCodeBlacklisted))
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewDatabaseError("add entry", cause)

	assert.Equal(t, "[DATABASE_ERROR] Database operation failed: add entry: connection refused", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.IsInternal())
	assert.False(t, err.IsDenial())
}

func TestAppError_Denials(t *testing.T) {
	for _, err := range []*AppError{
		NewBlacklistedError("1"),
		NewNotMemberError("1"),
		NewTooNewError("1", 2, 7),
		NewNotAllowedRoleError("1"),
		NewAlreadyEnteredError("1", "g"),
	} {
		assert.True(t, err.IsDenial(), err.Code)
	}
	assert.False(t, NewNoOngoingGiveawayError().IsDenial())
}

func TestNewTooNewError_Details(t *testing.T) {
	err := NewTooNewError("7", 3, 10)

	require.Equal(t, ErrCodeTooNew, err.Code)
	assert.Equal(t, 3, err.Details["tenure_days"])
	assert.Equal(t, 10, err.Details["min_days"])
	assert.Equal(t, "7", err.Details["participant_id"])
}
