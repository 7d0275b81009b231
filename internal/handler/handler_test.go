package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/apperror"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthReportsDatabaseState(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	r := gin.New()
	r.GET("/health", NewHealthHandler(db).Health)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"connected"`)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","database":"unreachable"}`, w.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteErrorRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		writeError(c, &service.RateLimitError{Action: service.ActionCreateQuestion, RetryAfter: 25 * time.Second})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "25", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"You are doing that too often. Please wait 25 seconds.","retry_after_seconds":25}`, w.Body.String())
}

func TestWriteErrorFallsBackToEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		writeError(c, apperror.NotFound("Question not found"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Question not found"}`, w.Body.String())
}
