package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"anoa.com/communityreview/internal/middleware"
	page "anoa.com/communityreview/internal/modules/page/service"
	profileDto "anoa.com/communityreview/internal/modules/profile/dto"
	reviewDto "anoa.com/communityreview/internal/modules/review/dto"
	search "anoa.com/communityreview/internal/modules/search/service"
	session "anoa.com/communityreview/internal/modules/session/service"
	theme "anoa.com/communityreview/internal/modules/theme/service"
	userDto "anoa.com/communityreview/internal/modules/user/dto"
	user "anoa.com/communityreview/internal/modules/user/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPages struct {
	data *page.PageData
	last page.Request
}

func (s *stubPages) Build(_ context.Context, req page.Request) (*page.PageData, error) {
	s.last = req
	data := *s.data
	data.Theme = req.Theme
	data.Message = req.Message
	data.Error = req.Error
	return &data, nil
}

type stubAuth struct {
	user.AuthService
	loggedOut bool
}

func (s *stubAuth) Login(_ context.Context, input userDto.LoginInput) (*userDto.AuthResponse, error) {
	if input.Password != "secret1" {
		return nil, user.ErrInvalidCredentials
	}
	return &userDto.AuthResponse{AccessToken: "tok"}, nil
}

func (s *stubAuth) Logout(context.Context, *userDto.Claims) error {
	s.loggedOut = true
	return nil
}

type stubReviews struct {
	deleted []uuid.UUID
}

func (s *stubReviews) SubmitReview(context.Context, *uuid.UUID, reviewDto.SubmitReviewInput) ([]reviewDto.ReviewView, error) {
	return nil, nil
}

func (s *stubReviews) LoadReviews(context.Context, *uuid.UUID) ([]reviewDto.ReviewView, error) {
	return nil, nil
}

func (s *stubReviews) DeleteReview(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubReviews) Stats(context.Context, uuid.UUID) (*reviewDto.Stats, error) {
	return &reviewDto.Stats{}, nil
}

func (s *stubReviews) Search(context.Context, string, int) ([]search.ReviewDocument, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, pages *stubPages, auth *stubAuth, reviews *stubReviews) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h, err := NewPageHandler(pages, auth, reviews, nil, nil, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", h.Index)
	r.POST("/web/login", h.Login)
	r.POST("/web/logout", h.Logout)
	r.POST("/web/reviews/:id/delete", h.DeleteReview)
	r.POST("/web/theme", h.ChangeTheme)
	r.POST("/web/font", h.ChangeFont)
	return r
}

func postForm(r http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestIndexRendersSignedOutPage(t *testing.T) {
	pages := &stubPages{data: &page.PageData{
		State:      &session.State{View: session.ViewAuth},
		Visibility: page.Navigate(false, page.Query{}),
	}}
	r := newTestRouter(t, pages, &stubAuth{}, &stubReviews{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?error=bad+password", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="login-form" class=""`)
	assert.Contains(t, body, `id="register-form" class="hidden"`)
	assert.Contains(t, body, `id="main-content" class="hidden"`)
	assert.Contains(t, body, "--accent: "+theme.DefaultAccent)
	assert.Contains(t, body, "bad password")
	assert.Equal(t, "bad password", pages.last.Error)
}

func TestIndexRendersAdminControls(t *testing.T) {
	reviewID := uuid.New()
	pages := &stubPages{data: &page.PageData{
		State:      &session.State{Authenticated: true, View: session.ViewMain},
		Visibility: page.Navigate(true, page.Query{}),
		Profile: &profileDto.ProfileView{
			FullName:      "Ada",
			Initial:       "A",
			IsAdmin:       true,
			AdminControls: profileDto.AdminControls{Video: true, Gallery: true, DeleteReviews: true},
		},
		Reviews: []reviewDto.ReviewView{{
			ID:        reviewID,
			Author:    reviewDto.Author{Name: "Bob", Initial: "B"},
			Stars:     "★★★★☆",
			Comment:   "<b>great</b>",
			CanDelete: true,
		}},
	}}
	r := newTestRouter(t, pages, &stubAuth{}, &stubReviews{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/web/video"`)
	assert.Contains(t, body, `action="/web/gallery"`)
	assert.Contains(t, body, "/?confirm_delete="+reviewID.String())
	assert.Contains(t, body, "&lt;b&gt;great&lt;/b&gt;")
	assert.NotContains(t, body, "<b>great</b>")
}

func TestLoginFormSetsCookieAndRedirects(t *testing.T) {
	r := newTestRouter(t, &stubPages{}, &stubAuth{}, &stubReviews{})

	w := postForm(r, "/web/login", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/?msg="))

	ck := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, ck)
	assert.Equal(t, "tok", ck.Value)

	w = postForm(r, "/web/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?error=invalid+credentials", w.Header().Get("Location"))
	assert.Nil(t, findCookie(w, middleware.SessionCookieName))
}

func TestLogoutClearsCookieWithoutSession(t *testing.T) {
	auth := &stubAuth{}
	r := newTestRouter(t, &stubPages{}, auth, &stubReviews{})

	w := postForm(r, "/web/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.False(t, auth.loggedOut)

	ck := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, ck)
	assert.True(t, ck.MaxAge < 0)
}

func TestDeleteReviewNeedsConfirmation(t *testing.T) {
	reviews := &stubReviews{}
	r := newTestRouter(t, &stubPages{}, &stubAuth{}, reviews)
	id := uuid.New()

	w := postForm(r, "/web/reviews/"+id.String()+"/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, reviews.deleted)

	w = postForm(r, "/web/reviews/"+id.String()+"/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []uuid.UUID{id}, reviews.deleted)

	w = postForm(r, "/web/reviews/nope/delete", url.Values{"confirm": {"yes"}})
	assert.Contains(t, w.Header().Get("Location"), "error=")
	assert.Len(t, reviews.deleted, 1)
}

func TestThemeFormsPersistChoice(t *testing.T) {
	r := newTestRouter(t, &stubPages{}, &stubAuth{}, &stubReviews{})

	w := postForm(r, "/web/theme", url.Values{"color": {"green"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "msg=")
	ck := findCookie(w, "theme_color")
	require.NotNil(t, ck)
	assert.Equal(t, "green", ck.Value)

	w = postForm(r, "/web/font", url.Values{"font": {"comic-sans"}})
	assert.Contains(t, w.Header().Get("Location"), "error=")
	assert.Nil(t, findCookie(w, "theme_font"))
}

func TestWithParam(t *testing.T) {
	assert.Equal(t, "/?msg=hi+there", withParam("/", "msg", "hi there"))
	assert.Equal(t, "/?error=nope&panel=profile", withParam("/?panel=profile", "error", "nope"))
}
