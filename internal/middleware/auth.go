package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/internal/modules/user/dto"
	"anoa.com/communityreview/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "session_token"

	ContextUserID  = "user_id"
	ContextClaims  = "claims"
	ContextToken   = "token"
	ContextProfile = "profile"
)

type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*dto.Claims, error)
}

type ProfileFinder interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
}

type AuthMiddleware struct {
	tokens   TokenParser
	profiles ProfileFinder
}

func NewAuthMiddleware(tokens TokenParser, profiles ProfileFinder) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		profiles: profiles,
	}
}

// TokenFromRequest looks at the Authorization header, then the session
// cookie, then the "token" query parameter (browsers cannot set headers on
// websocket upgrades).
func TokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	return c.Query("token")
}

func (m *AuthMiddleware) authenticate(c *gin.Context) error {
	tokenString := TokenFromRequest(c)
	if tokenString == "" {
		return apperror.New(http.StatusUnauthorized, "authorization required", apperror.ErrUnauthorized)
	}

	claims, err := m.tokens.ParseToken(c.Request.Context(), tokenString)
	if err != nil {
		return err
	}

	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextClaims, claims)
	c.Set(ContextToken, tokenString)
	return nil
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authenticate(c); err != nil {
			deny(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the visitor when a valid token is present and lets
// anonymous requests through untouched.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if TokenFromRequest(c) != "" {
			if err := m.authenticate(c); err != nil && isPageRequest(c) {
				ClearSessionCookie(c)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetString(ContextUserID)
		if userIDStr == "" {
			if err := m.authenticate(c); err != nil {
				deny(c, err)
				return
			}
			userIDStr = c.GetString(ContextUserID)
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			deny(c, apperror.ErrUnauthorized)
			return
		}

		profile, err := m.profiles.FindProfile(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				deny(c, apperror.New(http.StatusForbidden, "profile not found", apperror.ErrForbidden))
				return
			}
			deny(c, err)
			return
		}

		if !profile.IsAdmin {
			deny(c, apperror.New(http.StatusForbidden, "admin access required", apperror.ErrForbidden))
			return
		}

		c.Set(ContextProfile, profile)
		c.Next()
	}
}

// Claims returns the verified token claims stored by the auth middleware.
func Claims(c *gin.Context) *dto.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*dto.Claims)
	return claims
}

func SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", "", c.Request.TLS != nil, true)
}

func ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}

func isPageRequest(c *gin.Context) bool {
	return c.Request.URL.Path == "/" || strings.HasPrefix(c.Request.URL.Path, "/web/")
}

// deny answers JSON for the API and bounces form posts back to the page
// with the message attached.
func deny(c *gin.Context, err error) {
	if isPageRequest(c) {
		c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(err.Error()))
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(apperror.MapErrorToStatus(err), gin.H{"error": err.Error()})
}
