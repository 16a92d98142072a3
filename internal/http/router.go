package http

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	mw "giveaway-raffle/internal/common/middleware"
	dg "giveaway-raffle/internal/domain/giveaway"
	gsvc "giveaway-raffle/internal/service/giveaway"
)

// RaffleService is what the HTTP front-end needs from the giveaway controller.
type RaffleService interface {
	Info(ctx context.Context) (*gsvc.Info, error)
	Join(ctx context.Context, participantID string) (*dg.Entry, error)
	Create(ctx context.Context, in gsvc.CreateInput) (*gsvc.Current, error)
	Cancel(ctx context.Context) (*dg.Giveaway, error)
	Finish(ctx context.Context) (*gsvc.FinishResult, error)
	SetWinnerCount(ctx context.Context, n int) (*dg.Giveaway, error)
	AddToBlacklist(ctx context.Context, participantID string) error
	RemoveFromBlacklist(ctx context.Context, participantID string) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Options configure the router.
type Options struct {
	AllowedOrigin string
	AdminToken    string
	// BotToken guards the join route; only the front-end bot knows it.
	BotToken string
	// Checks are run by /ready, keyed by dependency name.
	Checks map[string]Pinger
}

// NewRouter builds the gin engine with middlewares and routes wired.
func NewRouter(svc RaffleService, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(), mw.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", mw.AdminTokenHeader, mw.BotTokenHeader, mw.ParticipantIDHeader, "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if opts.AllowedOrigin == "" || opts.AllowedOrigin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{opts.AllowedOrigin}
	}
	r.Use(cors.New(corsCfg))

	health := NewHealthHandlers(opts.Checks)
	health.Register(r)

	v1 := r.Group("/api/v1")
	gh := NewGiveawayHandlers(svc)
	gh.Register(v1, mw.RequireAdmin(opts.AdminToken), mw.RequireBot(opts.BotToken))
	bh := NewBlacklistHandlers(svc)
	bh.Register(v1, mw.RequireAdmin(opts.AdminToken))

	return r
}
