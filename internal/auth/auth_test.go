package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const secret = "jwt-secret-for-tests"

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)

	tok, err := IssueToken(secret, "alice", time.Hour)
	req.NoError(err)

	id, err := ParseToken(secret, tok)
	req.NoError(err)
	req.Equal(domain.Identity("alice"), id)
}

func TestToken_Rejections(t *testing.T) {
	expired, err := IssueToken(secret, "alice", -time.Minute)
	require.NoError(t, err)

	foreign, err := IssueToken("another-secret-value", "alice", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice", Issuer: issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":   expired,
		"wrong key": foreign,
		"alg none":  none,
		"garbage":   "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(secret, tok)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = IssueToken(secret, "", time.Hour)
	require.ErrorIs(t, err, domain.ErrUsernameEmpty)
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("ParleySessions", cookie.NewStore([]byte("0123456789abcdef0123"))))
	r.POST("/login/:name", func(c *gin.Context) {
		if err := Login(c, domain.Identity(c.Param("name"))); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", RequireIdentity(NewJWTResolver(secret), SessionResolver{}), func(c *gin.Context) {
		c.String(http.StatusOK, string(IdentityFrom(c)))
	})
	return r
}

func TestRequireIdentity(t *testing.T) {
	r := newEngine()
	tok, err := IssueToken(secret, "alice", time.Hour)
	require.NoError(t, err)

	t.Run("no credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		w := httptest.NewRecorder()
		rq := httptest.NewRequest(http.MethodGet, "/me", nil)
		rq.Header.Set("Authorization", "Bearer "+tok)
		r.ServeHTTP(w, rq)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "alice", w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "alice", w.Body.String())
	})

	t.Run("bad token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token=nope", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("cookie session", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/bob", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)

		w = httptest.NewRecorder()
		rq := httptest.NewRequest(http.MethodGet, "/me", nil)
		for _, ck := range cookies {
			rq.AddCookie(ck)
		}
		r.ServeHTTP(w, rq)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "bob", w.Body.String())
	})
}
