package notifications

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	dg "giveaway-raffle/internal/domain/giveaway"
)

type messenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Service sends winner notifications as direct messages.
type Service struct {
	dm messenger
}

var _ dg.WinnerNotifier = (*Service)(nil)

func NewService(dm messenger) *Service {
	return &Service{dm: dm}
}

// NotifyWinner opens a DM channel with the member and posts the win message.
func (s *Service) NotifyWinner(ctx context.Context, g *dg.Giveaway, m *dg.Member) error {
	if g == nil || m == nil {
		return fmt.Errorf("notify winner: missing giveaway or member")
	}
	ch, err := s.dm.UserChannelCreate(m.ID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := s.dm.ChannelMessageSend(ch.ID, buildWinnerMessage(g), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

func buildWinnerMessage(g *dg.Giveaway) string {
	return fmt.Sprintf("You're the %s raffle winner!!", g.Name)
}
