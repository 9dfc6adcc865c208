package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c), "user_id": GetUserID(c)})
	})
	return r
}

func signed(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"request_id":"abc-123"`)
}

func TestAuth(t *testing.T) {
	r := newEngine(RequestID(), Auth(testSecret))
	valid := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 7, "role": "clerk", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(-time.Hour).Unix()})
	noExp := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 7})
	wrongAlg := signed(t, jwt.SigningMethodHS512, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, `"user_id":7`},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, `"user_id":7`},
		{"missing", "", http.StatusUnauthorized, "missing bearer token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "missing bearer token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "token expired"},
		{"no expiry", "Bearer " + noExp, http.StatusUnauthorized, "invalid token"},
		{"wrong algorithm", "Bearer " + wrongAlg, http.StatusUnauthorized, "invalid token"},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestAuthQueryTokenOnlyForGet(t *testing.T) {
	r := newEngine(Auth(testSecret))
	r.POST("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	token := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 3, "exp": time.Now().Add(time.Hour).Unix()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping?access_token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":3`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ping?access_token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	r := newEngine(Auth(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoles(t *testing.T) {
	r := newEngine(Auth(testSecret), RequireRoles("Clerk", " supervisor "))
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   int
	}{
		{"allowed", jwt.MapClaims{"role": "clerk", "exp": exp}, http.StatusOK},
		{"case insensitive", jwt.MapClaims{"role": "SUPERVISOR", "exp": exp}, http.StatusOK},
		{"other role", jwt.MapClaims{"role": "viewer", "exp": exp}, http.StatusForbidden},
		{"no role", jwt.MapClaims{"user_id": 1, "exp": exp}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Authorization", "Bearer "+signed(t, jwt.SigningMethodHS256, tc.claims))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireRolesWithoutRoles(t *testing.T) {
	r := newEngine(RequireRoles(" ", ""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
