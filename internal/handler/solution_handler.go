package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type SolutionHandler struct {
	service service.SolutionService
}

func NewSolutionHandler(service service.SolutionService) *SolutionHandler {
	return &SolutionHandler{service: service}
}

func (h *SolutionHandler) TopRated(c *gin.Context) {
	solutions, err := h.service.TopRated(c.Request.Context(), response.QueryInt(c, "limit", 0))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"solutions": solutions})
}

func (h *SolutionHandler) ListByLanguage(c *gin.Context) {
	solutions, err := h.service.ListByLanguage(c.Request.Context(), c.Param("language"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"solutions": solutions})
}

func (h *SolutionHandler) ListByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	solutions, err := h.service.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"solutions": solutions})
}

func (h *SolutionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "solution")
	if !ok {
		return
	}
	solution, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"solution": solution})
}

func (h *SolutionHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "solution")
	if !ok {
		return
	}

	var input service.UpdateSolutionInput
	if !bindJSON(c, &input) {
		return
	}

	solution, err := h.service.Update(c.Request.Context(), userID, id, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Solution updated successfully", "solution": solution})
}

func (h *SolutionHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "solution")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id, requestMeta(c)); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Solution deleted successfully"})
}

func (h *SolutionHandler) Rate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "solution")
	if !ok {
		return
	}

	var input service.RateInput
	if !bindJSON(c, &input) {
		return
	}

	rating, err := h.service.Rate(c.Request.Context(), userID, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating submitted successfully", "rating": rating})
}

func (h *SolutionHandler) Ratings(c *gin.Context) {
	id, ok := pathID(c, "id", "solution")
	if !ok {
		return
	}
	summary, err := h.service.Ratings(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SolutionHandler) Statistics(c *gin.Context) {
	id, ok := pathID(c, "id", "solution")
	if !ok {
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}
