package handler

import (
	"net/http"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) ListExperts(c *gin.Context) {
	experts, err := h.userService.ListExperts(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experts": experts})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input service.UpdateProfileInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Image file is required")
		return
	}
	if fileHeader.Size > service.MaxAvatarSize {
		response.BadRequest(c, "Image must be 5 MB or smaller")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(c.Request.Context(), userID, service.AvatarUpload{
		Reader:      file,
		FileName:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile picture updated successfully", "user": user})
}

func (h *UserHandler) UpdateExpertise(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input service.UpdateExpertiseInput
	if !bindJSON(c, &input) {
		return
	}

	expertise, err := h.userService.UpdateExpertise(c.Request.Context(), userID, input.CategoryIDs)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expertise updated successfully", "expertise": expertise})
}

func (h *UserHandler) Follow(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}

	created, err := h.userService.Follow(c.Request.Context(), userID, targetID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "Already following this user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User followed successfully"})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.userService.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User unfollowed successfully"})
}

func (h *UserHandler) Followers(c *gin.Context) {
	id, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	users, err := h.userService.Followers(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": users})
}

func (h *UserHandler) Following(c *gin.Context) {
	id, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	users, err := h.userService.Following(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": users})
}

func (h *UserHandler) RateExpert(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	expertID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}

	var input service.RateInput
	if !bindJSON(c, &input) {
		return
	}

	rating, err := h.userService.RateExpert(c.Request.Context(), userID, expertID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating submitted successfully", "rating": rating})
}

func (h *UserHandler) ExpertRatings(c *gin.Context) {
	expertID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	summary, err := h.userService.ExpertRatings(c.Request.Context(), expertID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
