package repository

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ColorKey = "theme_color"
	FontKey  = "theme_font"
)

const preferenceMaxAge = 365 * 24 * time.Hour

// PreferenceStore is the per-browser key value store holding theme choices.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// cookieStore keeps preferences in long lived cookies. Writes made during
// the request are visible to later reads of the same request.
type cookieStore struct {
	c       *gin.Context
	pending map[string]*string
}

func NewCookieStore(c *gin.Context) PreferenceStore {
	return &cookieStore{c: c, pending: make(map[string]*string)}
}

func (s *cookieStore) Get(key string) (string, bool) {
	if v, ok := s.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	v, err := s.c.Cookie(key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (s *cookieStore) Set(key, value string) {
	s.pending[key] = &value
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, int(preferenceMaxAge.Seconds()), "/", "", s.c.Request.TLS != nil, true)
}

func (s *cookieStore) Remove(key string) {
	s.pending[key] = nil
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, "", -1, "/", "", s.c.Request.TLS != nil, true)
}
