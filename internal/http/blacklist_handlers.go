package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "giveaway-raffle/internal/common/middleware"
)

type BlacklistHandlers struct {
	service RaffleService
}

func NewBlacklistHandlers(svc RaffleService) *BlacklistHandlers {
	return &BlacklistHandlers{service: svc}
}

func (h *BlacklistHandlers) Register(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.POST("/blacklist/:participant_id", admin, h.add)
	rg.DELETE("/blacklist/:participant_id", admin, h.remove)
}

func (h *BlacklistHandlers) add(c *gin.Context) {
	id := c.Param("participant_id")
	if err := h.service.AddToBlacklist(c.Request.Context(), id); err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participant_id": id, "blacklisted": true})
}

func (h *BlacklistHandlers) remove(c *gin.Context) {
	id := c.Param("participant_id")
	if err := h.service.RemoveFromBlacklist(c.Request.Context(), id); err != nil {
		mw.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant_id": id, "blacklisted": false})
}
