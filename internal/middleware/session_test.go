package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signSession(t *testing.T, secret, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func invokeSessionAuth(t *testing.T, authorization string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenSession string
	h := SessionAuth(testSecret)(func(c echo.Context) error {
		seenSession, _ = c.Get(SessionKey).(string)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, seenSession
}

func TestSessionAuth_InjectsSubject(t *testing.T) {
	rec, session := invokeSessionAuth(t, "Bearer "+signSession(t, testSecret, "sess-42"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-42", session)
}

func TestSessionAuth_RejectsMissingHeader(t *testing.T) {
	rec, _ := invokeSessionAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuth_RejectsWrongSecret(t *testing.T) {
	rec, _ := invokeSessionAuth(t, "Bearer "+signSession(t, "other-secret", "sess-42"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuth_RejectsExpiredToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "sess-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, _ := invokeSessionAuth(t, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuth_RejectsMissingSubject(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, _ := invokeSessionAuth(t, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
