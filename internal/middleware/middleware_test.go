package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/logger"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *service.TokenIssuer) *gin.Engine {
	auth := NewAuthMiddleware(tokens)
	r := gin.New()
	r.Use(RequestContext(logger.Nop()))
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		id, err := response.GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "type": response.GetUserType(c)})
	})
	r.GET("/expert", auth.RequireAuth(), auth.RequireExpert(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", auth.RequireAuth(), auth.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func issue(t *testing.T, tokens *service.TokenIssuer, id uint, role string) string {
	t.Helper()
	tok, err := tokens.Issue(&model.User{ID: id, Email: "u@example.com", UserType: role})
	require.NoError(t, err)
	return tok.Token
}

func serve(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	r := newAuthRouter(service.NewTokenIssuer("secret", time.Hour))
	w := serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Access token required"}`, w.Body.String())
}

func TestRequireAuthInvalidToken(t *testing.T) {
	r := newAuthRouter(service.NewTokenIssuer("secret", time.Hour))

	w := serve(r, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())

	foreign := issue(t, service.NewTokenIssuer("other", time.Hour), 1, model.RoleUser)
	w = serve(r, http.MethodGet, "/me", foreign)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuthSetsClaims(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	r := newAuthRouter(tokens)

	w := serve(r, http.MethodGet, "/me", issue(t, tokens, 42, model.RoleStudent))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"type":"student"}`, w.Body.String())
}

func TestRequireAuthAcceptsQueryToken(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	r := newAuthRouter(tokens)

	w := serve(r, http.MethodGet, "/me?token="+issue(t, tokens, 5, model.RoleUser), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleChecks(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	r := newAuthRouter(tokens)

	user := issue(t, tokens, 1, model.RoleUser)
	expert := issue(t, tokens, 2, model.RoleExpert)
	admin := issue(t, tokens, 3, model.RoleAdmin)

	w := serve(r, http.MethodGet, "/expert", user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Expert access required"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/expert", expert).Code)

	w = serve(r, http.MethodGet, "/admin", expert)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Admin access required"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin", admin).Code)
}

func TestRequestContextEchoesID(t *testing.T) {
	r := gin.New()
	r.Use(RequestContext(logger.Nop()), RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(response.KeyRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, http.MethodGet, "/items/1", "")
	serve(r, http.MethodGet, "/items/2", "")
	serve(r, http.MethodGet, "/nope", "")

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "expertsolve_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			counts[labels["route"]+" "+labels["status"]] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), counts["/items/:id 204"])
	assert.Equal(t, float64(1), counts["unknown 404"])
}

func TestNilMetricsHandlerPassesThrough(t *testing.T) {
	var m *Metrics
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "").Code)
}
