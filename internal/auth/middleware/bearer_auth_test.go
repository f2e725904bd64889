package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	reqid "github.com/GoSim-25-26J-441/portfolio-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/service"
)

func newRouter(t *testing.T) (*gin.Engine, *service.TokenAuthority) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authority, err := service.NewTokenAuthority(service.Config{
		Secret:   []byte("secret"),
		Username: "admin",
		Password: "pw",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/protected", BearerAuth(authority, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"principal": auth.Principal(c)})
	})
	return r, authority
}

func doRequest(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	r, _ := newRouter(t)

	rr := doRequest(r, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"authentication token required"}`, rr.Body.String())
}

func TestBearerAuth_InvalidTokens(t *testing.T) {
	r, _ := newRouter(t)

	for _, header := range []string{
		"Bearer garbage",
		"Bearer",
		"Bearer ",
		"Basic YWRtaW46cHc=",
		"garbage",
	} {
		rr := doRequest(r, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
		assert.JSONEq(t, `{"error":"invalid token"}`, rr.Body.String(), header)
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	r, authority := newRouter(t)

	tok, err := authority.Issue("admin", "pw")
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + tok.Value, "bearer " + tok.Value} {
		rr := doRequest(r, header)
		require.Equal(t, http.StatusOK, rr.Code, header)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "admin", body["principal"])
	}
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("Bearer abc"))
	assert.Equal(t, "abc", extractToken("  BEARER   abc "))
	assert.Equal(t, "", extractToken("Token abc"))
	assert.Equal(t, "", extractToken("Bearer"))
}

func TestBearerAuth_LogsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, authority := newRouter(t)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(reqid.RequestID(zap.NewNop()))
	r.POST("/protected", BearerAuth(authority, zap.New(core)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.Header.Set(reqid.HeaderRequestID, "req-7")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	entries := logs.FilterMessage("token rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
}
