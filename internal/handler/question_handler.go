package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	service service.QuestionService
}

func NewQuestionHandler(service service.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: service}
}

func (h *QuestionHandler) List(c *gin.Context) {
	categoryID, ok := optionalUintQuery(c, "category_id", "category")
	if !ok {
		return
	}

	questions, err := h.service.List(
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
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) Search(c *gin.Context) {
	questions, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "question")
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *QuestionHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input service.CreateQuestionInput
	if !bindJSON(c, &input) {
		return
	}

	question, err := h.service.Create(c.Request.Context(), userID, input, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Anonymous question created successfully", "question": question})
}

func (h *QuestionHandler) MyQuestions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	questions, err := h.service.MyQuestions(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "question")
	if !ok {
		return
	}

	var input service.UpdateQuestionInput
	if !bindJSON(c, &input) {
		return
	}

	question, err := h.service.Update(c.Request.Context(), userID, id, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question updated successfully", "question": question})
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "question")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id, requestMeta(c)); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}
