package giveaway

import (
	"context"
	"errors"
)

// ErrEntryExists is returned by AddEntry when the participant already holds an entry.
var ErrEntryExists = errors.New("entry already exists")

// Ledger is the durable record of giveaways, entries, allowed roles and the blacklist.
// Lookups return nil, nil when nothing matches. Every write is a single atomic statement.
type Ledger interface {
	GetOngoingGiveaway(ctx context.Context) (*Giveaway, error)
	GetGiveaway(ctx context.Context, id string) (*Giveaway, error)
	CreateGiveaway(ctx context.Context, g *Giveaway) error
	SetOngoing(ctx context.Context, id string, ongoing bool) error
	SetWinnerCount(ctx context.Context, id string, winnerCount int) error

	AddAllowedRoles(ctx context.Context, giveawayID string, roleIDs []string) error
	ListAllowedRoles(ctx context.Context, giveawayID string) ([]AllowedRole, error)
	DeleteAllowedRole(ctx context.Context, giveawayID, roleID string) error

	GetEntry(ctx context.Context, participantID, giveawayID string) (*Entry, error)
	AddEntry(ctx context.Context, participantID, giveawayID string) (*Entry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
	MarkWinner(ctx context.Context, entryID int64) error
	// ListEntries returns entries in insertion order.
	ListEntries(ctx context.Context, giveawayID string) ([]Entry, error)
	CountEntries(ctx context.Context, giveawayID string) (int, error)

	GetBlacklistEntry(ctx context.Context, participantID string) (*BlacklistEntry, error)
	// AddBlacklistEntry reports false when the participant was already blacklisted.
	AddBlacklistEntry(ctx context.Context, participantID string) (bool, error)
	// RemoveBlacklistEntry reports false when the participant was not blacklisted.
	RemoveBlacklistEntry(ctx context.Context, participantID string) (bool, error)
}
