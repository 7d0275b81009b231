package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the activity log and role administration.
type AdminHandler struct {
	activity service.ActivityService
	users    service.UserService
}

func NewAdminHandler(activity service.ActivityService, users service.UserService) *AdminHandler {
	return &AdminHandler{
		activity: activity,
		users:    users,
	}
}

func (h *AdminHandler) MyActivity(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	logs, err := h.activity.ListForUser(
		c.Request.Context(),
		userID,
		response.QueryInt(c, "limit", 0),
		response.QueryInt(c, "offset", 0),
	)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": logs})
}

func (h *AdminHandler) ListActivity(c *gin.Context) {
	userID, ok := optionalUintQuery(c, "user_id", "user")
	if !ok {
		return
	}

	logs, err := h.activity.List(
		c.Request.Context(),
		userID,
		response.QueryInt(c, "limit", 0),
		response.QueryInt(c, "offset", 0),
	)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": logs})
}

func (h *AdminHandler) ChangeRole(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}

	var input service.ChangeRoleInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.users.ChangeRole(c.Request.Context(), userID, input.UserType)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), adminID, service.ActionUpdate, "user_role", userID, requestMeta(c),
		map[string]any{"user_type": input.UserType})

	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": user})
}
