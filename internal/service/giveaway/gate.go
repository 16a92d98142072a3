package giveaway

import (
	"context"

	apperr "giveaway-raffle/internal/common/errors"
	dg "giveaway-raffle/internal/domain/giveaway"
)

// Eligibility decides whether a participant may enter the current giveaway.
type Eligibility interface {
	CanEnter(ctx context.Context, participantID string, cur Current) error
}

// Gate runs the eligibility checks in a fixed order and stops at the first denial:
// blacklist, guild membership, tenure, roles, existing entry.
type Gate struct {
	ledger  dg.Ledger
	members dg.MembershipProvider
	req     dg.Requirements
}

func NewGate(ledger dg.Ledger, members dg.MembershipProvider, req dg.Requirements) *Gate {
	return &Gate{ledger: ledger, members: members, req: req}
}

// CanEnter returns nil when the participant is allowed in. Denials are AppErrors with a
// gate code; ledger and provider failures are database or external-API errors.
func (g *Gate) CanEnter(ctx context.Context, participantID string, cur Current) error {
	if cur.Giveaway == nil {
		return apperr.NewNoOngoingGiveawayError()
	}

	banned, err := g.ledger.GetBlacklistEntry(ctx, participantID)
	if err != nil {
		return apperr.NewDatabaseError("get blacklist entry", err)
	}
	if banned != nil {
		return apperr.NewBlacklistedError(participantID)
	}

	member, err := g.members.ResolveMember(ctx, participantID)
	if err != nil {
		return apperr.NewExternalAPIError("resolve member", err)
	}
	if member == nil {
		return apperr.NewNotMemberError(participantID)
	}

	if g.req.MinTenureDays > 0 {
		days, err := g.members.MemberTenureDays(ctx, participantID)
		if err != nil {
			return apperr.NewExternalAPIError("member tenure", err)
		}
		if days < g.req.MinTenureDays {
			return apperr.NewTooNewError(participantID, days, g.req.MinTenureDays)
		}
	}

	if allowed := cur.AllowedRoleIDs(); len(allowed) > 0 {
		held, err := g.members.MemberRoles(ctx, participantID)
		if err != nil {
			return apperr.NewExternalAPIError("member roles", err)
		}
		if !g.req.RoleAccepted(held, allowed) {
			return apperr.NewNotAllowedRoleError(participantID)
		}
	}

	entry, err := g.ledger.GetEntry(ctx, participantID, cur.Giveaway.ID)
	if err != nil {
		return apperr.NewDatabaseError("get entry", err)
	}
	if entry != nil {
		return apperr.NewAlreadyEnteredError(participantID, cur.Giveaway.ID)
	}
	return nil
}
