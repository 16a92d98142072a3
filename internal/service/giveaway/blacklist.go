package giveaway

import (
	"context"

	apperr "giveaway-raffle/internal/common/errors"
	"giveaway-raffle/internal/common/validation"
)

// AddToBlacklist excludes a participant from every giveaway. Entries they already hold
// are left in place.
func (c *Controller) AddToBlacklist(ctx context.Context, participantID string) error {
	participantID, err := validation.ID("participant_id", participantID)
	if err != nil {
		return err
	}
	added, err := c.ledger.AddBlacklistEntry(ctx, participantID)
	if err != nil {
		return apperr.NewDatabaseError("add blacklist entry", err)
	}
	if !added {
		return apperr.New(apperr.ErrCodeAlreadyBlacklisted, "Participant is already blacklisted").
			WithDetail("participant_id", participantID)
	}
	c.log.Info().Str("participant_id", participantID).Msg("Participant blacklisted")
	return nil
}

func (c *Controller) RemoveFromBlacklist(ctx context.Context, participantID string) error {
	participantID, err := validation.ID("participant_id", participantID)
	if err != nil {
		return err
	}
	removed, err := c.ledger.RemoveBlacklistEntry(ctx, participantID)
	if err != nil {
		return apperr.NewDatabaseError("remove blacklist entry", err)
	}
	if !removed {
		return apperr.New(apperr.ErrCodeNotBlacklisted, "Participant is not blacklisted").
			WithDetail("participant_id", participantID)
	}
	c.log.Info().Str("participant_id", participantID).Msg("Participant removed from blacklist")
	return nil
}
