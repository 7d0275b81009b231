package handler

import (
	"errors"
	"strconv"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/response"
	"expertsolve.com/hub/pkg/validator"
	"github.com/gin-gonic/gin"
)

// writeError adds retry_after_seconds to rate limit rejections and
// defers to the standard envelope otherwise.
func writeError(c *gin.Context, err error) {
	var rl *service.RateLimitError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(rl.RetryAfterSeconds()))
		c.JSON(apperror.MapErrorToStatus(err), gin.H{
			"error":               rl.Error(),
			"retry_after_seconds": rl.RetryAfterSeconds(),
		})
		return
	}
	response.ResponseError(c, err)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return false
	}
	return true
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// callerID aborts with 401 when no authenticated user is on the context.
func callerID(c *gin.Context) (uint, bool) {
	id, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, apperror.Unauthorized("Access token required"))
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, param, label string) (uint, bool) {
	id, err := response.ParseID(c, param, label)
	if err != nil {
		response.ResponseError(c, err)
		return 0, false
	}
	return id, true
}

// optionalUintQuery parses ?key=; an absent key yields nil.
func optionalUintQuery(c *gin.Context, key, label string) (*uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		response.BadRequest(c, "Invalid "+label+" ID")
		return nil, false
	}
	id := uint(v)
	return &id, true
}
