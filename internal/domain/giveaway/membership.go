package giveaway

import "context"

// MembershipProvider resolves participants and roles against the community directory.
// A nil result with a nil error means the member or role no longer exists.
type MembershipProvider interface {
	ResolveMember(ctx context.Context, id string) (*Member, error)
	ResolveRole(ctx context.Context, id string) (*Role, error)
	MemberRoles(ctx context.Context, participantID string) ([]string, error)
	MemberTenureDays(ctx context.Context, participantID string) (int, error)
}

// WinnerNotifier delivers the win message to a drawn member.
type WinnerNotifier interface {
	NotifyWinner(ctx context.Context, g *Giveaway, m *Member) error
}
