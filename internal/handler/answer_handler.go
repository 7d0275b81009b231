package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	service service.AnswerService
}

func NewAnswerHandler(service service.AnswerService) *AnswerHandler {
	return &AnswerHandler{service: service}
}

func (h *AnswerHandler) TopRated(c *gin.Context) {
	answers, err := h.service.TopRated(c.Request.Context(), response.QueryInt(c, "limit", 0))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (h *AnswerHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "answerId", "answer")
	if !ok {
		return
	}
	answer, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *AnswerHandler) ListByQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "questionId", "question")
	if !ok {
		return
	}
	answers, err := h.service.ListByQuestion(c.Request.Context(), questionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (h *AnswerHandler) ListByExpert(c *gin.Context) {
	expertID, ok := pathID(c, "expertId", "expert")
	if !ok {
		return
	}
	answers, err := h.service.ListByExpert(c.Request.Context(), expertID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (h *AnswerHandler) MyAnswers(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	answers, err := h.service.ListByExpert(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (h *AnswerHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "questionId", "question")
	if !ok {
		return
	}

	var input service.AnswerInput
	if !bindJSON(c, &input) {
		return
	}

	answer, err := h.service.Create(c.Request.Context(), userID, questionID, input, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Answer created successfully", "answer": answer})
}

func (h *AnswerHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "answerId", "answer")
	if !ok {
		return
	}

	var input service.AnswerInput
	if !bindJSON(c, &input) {
		return
	}

	answer, err := h.service.Update(c.Request.Context(), userID, id, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer updated successfully", "answer": answer})
}

func (h *AnswerHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "answerId", "answer")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id, requestMeta(c)); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

func (h *AnswerHandler) MarkHelpful(c *gin.Context) {
	id, ok := pathID(c, "answerId", "answer")
	if !ok {
		return
	}
	answer, err := h.service.MarkHelpful(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer marked as helpful", "answer": answer})
}

func (h *AnswerHandler) Rate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "answerId", "answer")
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

func (h *AnswerHandler) Ratings(c *gin.Context) {
	id, ok := pathID(c, "answerId", "answer")
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

func (h *AnswerHandler) Statistics(c *gin.Context) {
	id, ok := pathID(c, "answerId", "answer")
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
