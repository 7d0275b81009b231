package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	challenges service.ChallengeService
	solutions  service.SolutionService
}

func NewChallengeHandler(challenges service.ChallengeService, solutions service.SolutionService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, solutions: solutions}
}

func (h *ChallengeHandler) List(c *gin.Context) {
	categoryID, ok := optionalUintQuery(c, "category_id", "category")
	if !ok {
		return
	}

	challenges, err := h.challenges.List(
		c.Request.Context(),
		categoryID,
		c.Query("status"),
		response.QueryInt(c, "limit", 0),
		response.QueryInt(c, "offset", 0),
	)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) Search(c *gin.Context) {
	challenges, err := h.challenges.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}
	detail, err := h.challenges.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ChallengeHandler) ListByExpert(c *gin.Context) {
	expertID, ok := pathID(c, "expertId", "expert")
	if !ok {
		return
	}
	challenges, err := h.challenges.ListByExpert(c.Request.Context(), expertID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) Solutions(c *gin.Context) {
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}
	solutions, err := h.challenges.Solutions(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"solutions": solutions})
}

func (h *ChallengeHandler) Participants(c *gin.Context) {
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}
	participants, err := h.challenges.Participants(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input service.CreateChallengeInput
	if !bindJSON(c, &input) {
		return
	}

	challenge, err := h.challenges.Create(c.Request.Context(), userID, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Challenge created successfully", "challenge": challenge})
}

func (h *ChallengeHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}

	var input service.UpdateChallengeInput
	if !bindJSON(c, &input) {
		return
	}

	challenge, err := h.challenges.Update(c.Request.Context(), userID, id, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Challenge updated successfully", "challenge": challenge})
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}

	if err := h.challenges.Delete(c.Request.Context(), userID, id, requestMeta(c)); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Challenge deleted successfully"})
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}

	joined, err := h.challenges.Join(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !joined {
		c.JSON(http.StatusOK, gin.H{"message": "Already joined this challenge"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Joined challenge successfully"})
}

func (h *ChallengeHandler) Leave(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}

	if err := h.challenges.Leave(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left challenge successfully"})
}

func (h *ChallengeHandler) SubmitSolution(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "challenge")
	if !ok {
		return
	}

	var input service.SolutionInput
	if !bindJSON(c, &input) {
		return
	}

	solution, err := h.solutions.Create(c.Request.Context(), userID, id, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Solution created successfully", "solution": solution})
}
