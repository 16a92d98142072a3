package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-raffle/internal/common/errors"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	return r
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrCodeValidation, http.StatusBadRequest},
		{errors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{errors.ErrCodeBlacklisted, http.StatusForbidden},
		{errors.ErrCodeNotMember, http.StatusForbidden},
		{errors.ErrCodeTooNew, http.StatusForbidden},
		{errors.ErrCodeAlreadyEntered, http.StatusConflict},
		{errors.ErrCodeNoOngoingGiveaway, http.StatusConflict},
		{errors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{errors.ErrCodeExternalAPI, http.StatusBadGateway},
		{errors.ErrCodeDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(errors.New(tt.code, "x")))
		})
	}
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	r := newTestRouter()
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeInternal, body.Error.Code)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		given      string
		want       int
	}{
		{"valid token", "secret", "secret", http.StatusOK},
		{"wrong token", "secret", "nope", http.StatusUnauthorized},
		{"missing token", "secret", "", http.StatusUnauthorized},
		{"admin disabled", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter()
			r.POST("/admin", RequireAdmin(tt.configured), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tt.given != "" {
				req.Header.Set(AdminTokenHeader, tt.given)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireBot(t *testing.T) {
	r := newTestRouter()
	r.POST("/join", RequireBot("bot-secret"), RequireParticipant(), func(c *gin.Context) {
		c.String(http.StatusOK, ParticipantID(c))
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"bot with participant", map[string]string{BotTokenHeader: "bot-secret", ParticipantIDHeader: "42"}, http.StatusOK},
		{"participant without bot token", map[string]string{ParticipantIDHeader: "42"}, http.StatusUnauthorized},
		{"admin token is not a bot token", map[string]string{AdminTokenHeader: "bot-secret", ParticipantIDHeader: "42"}, http.StatusUnauthorized},
		{"bot without participant", map[string]string{BotTokenHeader: "bot-secret"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/join", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireParticipant(t *testing.T) {
	r := newTestRouter()
	r.GET("/me", RequireParticipant(), func(c *gin.Context) { c.String(http.StatusOK, ParticipantID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(ParticipantIDHeader, "1234")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1234", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
