package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"giveaway-raffle/internal/common/errors"
)

const (
	AdminTokenHeader    = "X-Admin-Token"
	BotTokenHeader      = "X-Bot-Token"
	ParticipantIDHeader = "X-Participant-ID"
	participantIDKey    = "participant_id"
)

// RequireAdmin guards administrative routes with a shared token. An empty configured
// token rejects every request.
func RequireAdmin(token string) gin.HandlerFunc {
	return requireToken(AdminTokenHeader, token, "admin token required")
}

// RequireBot guards routes that only the front-end bot may call, such as joining on behalf
// of a participant. An empty configured token rejects every request.
func RequireBot(token string) gin.HandlerFunc {
	return requireToken(BotTokenHeader, token, "bot token required")
}

func requireToken(header, token, reason string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(header)
		if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			sendErrorResponse(c, errors.NewUnauthorizedError(reason))
			return
		}
		c.Next()
	}
}

// RequireParticipant reads the participant id set by the front-end bot. It must run after
// RequireBot.
func RequireParticipant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(ParticipantIDHeader))
		if id == "" {
			sendErrorResponse(c, errors.NewUnauthorizedError("participant id required"))
			return
		}
		c.Set(participantIDKey, id)
		c.Next()
	}
}

// ParticipantID returns the id stored by RequireParticipant.
func ParticipantID(c *gin.Context) string {
	return c.GetString(participantIDKey)
}
