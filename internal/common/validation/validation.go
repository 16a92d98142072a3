package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"giveaway-raffle/internal/common/errors"
)

const (
	MaxNameLength = 100
	MinNameLength = 1

	// MaxIDLength bounds participant and role ids; platform snowflakes are at most 20 digits.
	MaxIDLength = 64
)

// Name trims a giveaway name and checks its length.
func Name(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinNameLength {
		return "", errors.NewValidationError("name", "must not be empty")
	}
	if n > MaxNameLength {
		return "", errors.NewValidationError("name", fmt.Sprintf("cannot exceed %d characters", MaxNameLength))
	}
	return name, nil
}

func WinnerCount(n int) error {
	if n <= 0 {
		return errors.NewValidationError("winner_count", "must be greater than 0")
	}
	return nil
}

// EndsAt accepts a nil end time or one strictly after now.
func EndsAt(endsAt *time.Time, now time.Time) error {
	if endsAt != nil && !endsAt.After(now) {
		return errors.NewValidationError("ends_at", "must be in the future")
	}
	return nil
}

// ID trims a participant or role id and rejects empty, oversized or whitespace-bearing values.
func ID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewValidationError(field, "must not be empty")
	}
	if len(id) > MaxIDLength {
		return "", errors.NewValidationError(field, fmt.Sprintf("cannot exceed %d characters", MaxIDLength))
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return "", errors.NewValidationError(field, "must not contain whitespace")
	}
	return id, nil
}
