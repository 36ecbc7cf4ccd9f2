package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("APPENV", "test")
	util.SetJWTSecret("middleware-test-secret")
	util.SetSecurityLoggerForTest(log.New(&bytes.Buffer{}, "", 0))
	os.Exit(m.Run())
}

func performRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) util.APIResponse {
	t.Helper()
	var resp util.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodOptions, "/test", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = performRequest(r, http.MethodPost, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.Use(Authenticate())
	r.POST("/whoami", func(c *gin.Context) {
		email, ok := GetPrincipal(c)
		role, _ := GetRoleID(c)
		c.JSON(http.StatusOK, gin.H{"email": email, "ok": ok, "role": role})
	})

	valid, err := util.IssueToken("mario@example.com", model.RolePatient, time.Hour)
	require.NoError(t, err)
	expired, err := util.IssueToken("mario@example.com", model.RolePatient, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := performRequest(r, http.MethodPost, "/whoami", headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, util.CodeUnauthorized, decodeResponse(t, w).Code)
				return
			}
			assert.Contains(t, w.Body.String(), `"email":"mario@example.com"`)
			assert.Contains(t, w.Body.String(), `"role":3`)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := performRequest(r, http.MethodGet, "/test", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	incoming := "7c1b0f0e-2b6a-4a53-9d0a-3f5f0f4c9b11"
	w = performRequest(r, http.MethodGet, "/test", map[string]string{RequestIDHeader: incoming})
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	w = performRequest(r, http.MethodGet, "/test", map[string]string{RequestIDHeader: "not\na uuid"})
	assert.NotEqual(t, "not\na uuid", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop().Sugar()))
	r.GET("/panic", func(c *gin.Context) { panic("database exploded") })

	w := performRequest(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, util.CodeInternal, resp.Code)
	assert.NotContains(t, w.Body.String(), "database exploded")
}

func TestDatabaseMiddleware(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/without", func(c *gin.Context) {
		assert.Nil(t, GetDB(c))
		c.Status(http.StatusOK)
	})
	r.GET("/with", DatabaseMiddleware(db), func(c *gin.Context) {
		assert.Same(t, db, GetDB(c))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/without", nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/with", nil).Code)
}
