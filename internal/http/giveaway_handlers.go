package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"giveaway-raffle/internal/common/errors"
	mw "giveaway-raffle/internal/common/middleware"
	gsvc "giveaway-raffle/internal/service/giveaway"
)

// GiveawayHandlers exposes the giveaway lifecycle.
type GiveawayHandlers struct {
	service RaffleService
}

func NewGiveawayHandlers(svc RaffleService) *GiveawayHandlers {
	return &GiveawayHandlers{service: svc}
}

func (h *GiveawayHandlers) Register(rg *gin.RouterGroup, admin, bot gin.HandlerFunc) {
	giveaways := rg.Group("/giveaways")
	{
		giveaways.GET("/current", h.current)
		giveaways.POST("/current/join", bot, mw.RequireParticipant(), h.join)

		giveaways.POST("", admin, h.create)
		giveaways.POST("/current/cancel", admin, h.cancel)
		giveaways.POST("/current/finish", admin, h.finish)
		giveaways.PATCH("/current/winners", admin, h.setWinnerCount)
	}
}

type createGiveawayReq struct {
	Name        string     `json:"name"`
	WinnerCount int        `json:"winner_count"`
	RoleIDs     []string   `json:"role_ids,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

type winnerCountReq struct {
	WinnerCount int `json:"winner_count"`
}

func (h *GiveawayHandlers) current(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context())
	if err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *GiveawayHandlers) join(c *gin.Context) {
	entry, err := h.service.Join(c.Request.Context(), mw.ParticipantID(c))
	if err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *GiveawayHandlers) create(c *gin.Context) {
	var req createGiveawayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		mw.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}
	cur, err := h.service.Create(c.Request.Context(), gsvc.CreateInput{
		Name:        strings.TrimSpace(req.Name),
		WinnerCount: req.WinnerCount,
		RoleIDs:     req.RoleIDs,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"giveaway":      cur.Giveaway,
		"allowed_roles": cur.AllowedRoles,
		"state":         cur.State,
	})
}

func (h *GiveawayHandlers) cancel(c *gin.Context) {
	g, err := h.service.Cancel(c.Request.Context())
	if err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"giveaway": g})
}

// finish reports a partial result together with the error when the draw failed midway.
func (h *GiveawayHandlers) finish(c *gin.Context) {
	res, err := h.service.Finish(c.Request.Context())
	if err != nil && res == nil {
		mw.RespondError(c, err)
		return
	}
	body := gin.H{"result": res}
	status := http.StatusOK
	if err != nil {
		body["error"] = err.Error()
		status = http.StatusInternalServerError
	}
	c.JSON(status, body)
}

func (h *GiveawayHandlers) setWinnerCount(c *gin.Context) {
	var req winnerCountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		mw.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}
	g, err := h.service.SetWinnerCount(c.Request.Context(), req.WinnerCount)
	if err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"giveaway": g})
}
