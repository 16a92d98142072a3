package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Open creates a REST session for the bot and validates the token. The gateway is not
// opened: guild events reach this service through the bot event stream.
func Open(ctx context.Context, token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("empty discord bot token")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	if _, err := s.User("@me", discordgo.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("validate discord token: %w", err)
	}
	return s, nil
}
