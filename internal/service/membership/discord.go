// Package membership resolves participants and roles against a Discord guild.
package membership

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	dg "giveaway-raffle/internal/domain/giveaway"
)

type guildAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

// Provider implements the membership lookups for one guild.
type Provider struct {
	api     guildAPI
	guildID string
	now     func() time.Time
}

var _ dg.MembershipProvider = (*Provider)(nil)

func NewProvider(api guildAPI, guildID string) *Provider {
	return &Provider{api: api, guildID: guildID, now: time.Now}
}

func (p *Provider) member(ctx context.Context, id string) (*discordgo.Member, error) {
	m, err := p.api.GuildMember(p.guildID, id, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknown(err) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ResolveMember returns nil when the user is no longer in the guild.
func (p *Provider) ResolveMember(ctx context.Context, id string) (*dg.Member, error) {
	m, err := p.member(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	out := &dg.Member{ID: id, Roles: m.Roles, JoinedAt: m.JoinedAt, DisplayName: m.Nick}
	if m.User != nil {
		out.ID = m.User.ID
		out.Username = m.User.Username
		if out.DisplayName == "" {
			out.DisplayName = m.User.GlobalName
		}
	}
	return out, nil
}

// ResolveRole returns nil when the guild has no role with that id.
func (p *Provider) ResolveRole(ctx context.Context, id string) (*dg.Role, error) {
	roles, err := p.api.GuildRoles(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.ID == id {
			return &dg.Role{ID: r.ID, Name: r.Name}, nil
		}
	}
	return nil, nil
}

// MemberRoles returns no roles for users outside the guild.
func (p *Provider) MemberRoles(ctx context.Context, participantID string) ([]string, error) {
	m, err := p.member(ctx, participantID)
	if err != nil || m == nil {
		return nil, err
	}
	return m.Roles, nil
}

// MemberTenureDays counts whole days since the member joined the guild. Users outside the
// guild have no tenure.
func (p *Provider) MemberTenureDays(ctx context.Context, participantID string) (int, error) {
	m, err := p.member(ctx, participantID)
	if err != nil || m == nil {
		return 0, err
	}
	joined := m.JoinedAt
	if joined.IsZero() {
		// fall back to account creation time
		ts, err := discordgo.SnowflakeTimestamp(participantID)
		if err != nil {
			return 0, nil
		}
		joined = ts
	}
	days := int(p.now().Sub(joined).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, nil
}

func isUnknown(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
