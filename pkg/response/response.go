package response

import (
	"net/http"
	"strconv"

	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Keys the auth and logging middleware store on the gin context.
const (
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyUserType  = "user_type"
	KeyLogger    = "logger"
	KeyRequestID = "request_id"
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(c *gin.Context) (uint, error) {
	v, exists := c.Get(KeyUserID)
	if !exists {
		return 0, apperror.ErrUnauthorized
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return 0, apperror.ErrUnauthorized
	}
	return id, nil
}

// GetUserType returns the role claim of the authenticated caller, or "".
func GetUserType(c *gin.Context) string {
	return c.GetString(KeyUserType)
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, param, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.BadRequest("Invalid " + label + " ID")
	}
	return uint(id), nil
}

// QueryInt reads an integer query parameter, falling back to def when
// absent or malformed.
func QueryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Logger returns the request-scoped logger, or a no-op one.
func Logger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(KeyLogger); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Nop()
}

// ResponseError writes the standard error envelope for err.
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		Logger(c).Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(code, gin.H{"error": apperror.PublicMessage(err)})
}

// BadRequest writes a 400 with message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
