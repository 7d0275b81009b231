package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service service.LeaderboardService
}

func NewLeaderboardHandler(service service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Experts ranks experts by ?category= (rating, answers or helpfulness).
func (h *LeaderboardHandler) Experts(c *gin.Context) {
	entries, err := h.service.TopExperts(
		c.Request.Context(),
		c.Query("category"),
		response.QueryInt(c, "limit", 0),
	)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
