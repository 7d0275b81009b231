package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	service service.CategoryService
}

func NewCategoryHandler(service service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CategoryHandler) TopLevel(c *gin.Context) {
	categories, err := h.service.TopLevel(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CategoryHandler) Search(c *gin.Context) {
	categories, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}
	category, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (h *CategoryHandler) Subcategories(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}
	categories, err := h.service.Subcategories(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategories": categories})
}

func (h *CategoryHandler) Experts(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}
	experts, err := h.service.Experts(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experts": experts})
}

func (h *CategoryHandler) Statistics(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
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

func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input service.CategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := h.service.Create(c.Request.Context(), userID, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}

	var input service.CategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := h.service.Update(c.Request.Context(), userID, id, input, requestMeta(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id, requestMeta(c)); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
