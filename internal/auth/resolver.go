package auth

import (
	"net/http"
	"strings"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// IdentityKey is where RequireIdentity leaves the identity in the gin context.
	IdentityKey = "identity"
	// SessionUserKey is the cookie session field the login side fills in.
	SessionUserKey = "username"
)

// Resolver finds the identity of a request, if it carries one.
type Resolver interface {
	Resolve(c *gin.Context) (domain.Identity, bool)
}

// JWTResolver accepts "Authorization: Bearer <token>" or, for browsers
// that cannot set headers on a websocket handshake, ?token=<token>.
type JWTResolver struct {
	secret string
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: secret}
}

func (r *JWTResolver) Resolve(c *gin.Context) (domain.Identity, bool) {
	token := ""
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else {
		token = c.Query("token")
	}
	if token == "" {
		return "", false
	}
	id, err := ParseToken(r.secret, token)
	if err != nil {
		log.Debug().Err(err).Str("module", "auth").Msg("token rejected")
		return "", false
	}
	return id, true
}

// SessionResolver reads the username from the cookie session.
type SessionResolver struct{}

func (SessionResolver) Resolve(c *gin.Context) (domain.Identity, bool) {
	name, ok := sessions.Default(c).Get(SessionUserKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return domain.Identity(name), true
}

// Login records username in the cookie session. Logout clears it.
func Login(c *gin.Context, username domain.Identity) error {
	s := sessions.Default(c)
	s.Set(SessionUserKey, string(username))
	return s.Save()
}

func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(SessionUserKey)
	return s.Save()
}

// RequireIdentity tries resolvers in order and aborts with 401 when none
// of them knows the caller.
func RequireIdentity(resolvers ...Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range resolvers {
			if id, ok := r.Resolve(c); ok {
				c.Set(IdentityKey, id)
				c.Next()
				return
			}
		}
		log.Info().Str("module", "auth").Str("path", c.FullPath()).Msg("unauthenticated request")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthenticated.Error()})
	}
}

// IdentityFrom returns what RequireIdentity stored, or "".
func IdentityFrom(c *gin.Context) domain.Identity {
	id, _ := c.Get(IdentityKey)
	v, _ := id.(domain.Identity)
	return v
}
