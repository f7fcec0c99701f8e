package handler

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"anoa.com/communityreview/internal/middleware"
	mediaHandler "anoa.com/communityreview/internal/modules/media/delivery/http"
	media "anoa.com/communityreview/internal/modules/media/service"
	page "anoa.com/communityreview/internal/modules/page/service"
	profile "anoa.com/communityreview/internal/modules/profile/service"
	reviewDto "anoa.com/communityreview/internal/modules/review/dto"
	review "anoa.com/communityreview/internal/modules/review/service"
	themeDto "anoa.com/communityreview/internal/modules/theme/dto"
	themeRepo "anoa.com/communityreview/internal/modules/theme/repository"
	theme "anoa.com/communityreview/internal/modules/theme/service"
	userDto "anoa.com/communityreview/internal/modules/user/dto"
	user "anoa.com/communityreview/internal/modules/user/service"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	// theme values come from a fixed table or a validated hex code
	"css": func(s string) template.CSS { return template.CSS(s) },
	"seq": func(from, to int) []int {
		out := make([]int, 0, to-from+1)
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
}

func ParseTemplates() (*template.Template, error) {
	return template.New("page").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// PageHandler serves the server rendered site. Every form posts to a /web
// route which redirects back to the page with a msg or error parameter.
type PageHandler struct {
	pageService    page.PageService
	authService    user.AuthService
	reviewService  review.ReviewService
	mediaService   media.MediaService
	profileService profile.ProfileService
	tokenTTL       time.Duration
	tmpl           *template.Template
}

func NewPageHandler(
	pageService page.PageService,
	authService user.AuthService,
	reviewService review.ReviewService,
	mediaService media.MediaService,
	profileService profile.ProfileService,
	tokenTTL time.Duration,
) (*PageHandler, error) {
	tmpl, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		pageService:    pageService,
		authService:    authService,
		reviewService:  reviewService,
		mediaService:   mediaService,
		profileService: profileService,
		tokenTTL:       tokenTTL,
		tmpl:           tmpl,
	}, nil
}

func (h *PageHandler) Index(c *gin.Context) {
	var query page.Query
	_ = c.ShouldBindQuery(&query)

	data, err := h.pageService.Build(c.Request.Context(), page.Request{
		Token:         middleware.TokenFromRequest(c),
		Query:         query,
		Theme:         h.themeView(c),
		Message:       c.Query("msg"),
		Error:         c.Query("error"),
		ConfirmDelete: c.Query("confirm_delete"),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build page")
		c.String(http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "index", Data: data})
}

func (h *PageHandler) themeView(c *gin.Context) themeDto.View {
	return theme.BuildView(theme.LoadThemeSettings(themeRepo.NewCookieStore(c)))
}

func (h *PageHandler) Login(c *gin.Context) {
	var input userDto.LoginInput
	_ = c.ShouldBind(&input)

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		redirectError(c, "/", err)
		return
	}

	middleware.SetSessionCookie(c, res.AccessToken, h.tokenTTL)
	redirectMessage(c, "/", "Welcome back!")
}

func (h *PageHandler) Register(c *gin.Context) {
	var input userDto.RegisterInput
	_ = c.ShouldBind(&input)

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		redirectError(c, "/?view="+page.ViewRegister, err)
		return
	}

	middleware.SetSessionCookie(c, res.AccessToken, h.tokenTTL)
	redirectMessage(c, "/", "Account created, welcome!")
}

// Logout always clears the cookie, even when the session was already gone.
func (h *PageHandler) Logout(c *gin.Context) {
	if claims := middleware.Claims(c); claims != nil {
		if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
			log.Warn().Err(err).Msg("failed to revoke session")
		}
	}

	middleware.ClearSessionCookie(c)
	redirectMessage(c, "/", "You have been signed out.")
}

func (h *PageHandler) SubmitReview(c *gin.Context) {
	var input reviewDto.SubmitReviewInput
	_ = c.ShouldBind(&input)

	if _, err := h.reviewService.SubmitReview(c.Request.Context(), response.OptionalUserID(c), input); err != nil {
		redirectError(c, "/", err)
		return
	}

	redirectMessage(c, "/", "Thanks for your review!")
}

func (h *PageHandler) DeleteReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		redirectError(c, "/", apperror.Invalid("invalid review id"))
		return
	}

	if c.PostForm("confirm") != "yes" {
		redirectMessage(c, "/", "Nothing was deleted.")
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), id); err != nil {
		redirectError(c, "/", err)
		return
	}

	redirectMessage(c, "/", "Review deleted.")
}

func (h *PageHandler) UploadVideo(c *gin.Context) {
	if _, err := h.mediaService.UploadVideo(c.Request.Context(), c.PostForm("url")); err != nil {
		redirectError(c, "/", err)
		return
	}

	redirectMessage(c, "/", "Video updated.")
}

func (h *PageHandler) UploadGallery(c *gin.Context) {
	files, closeAll, err := mediaHandler.OpenFormFiles(c, "images")
	if err != nil {
		redirectError(c, "/", err)
		return
	}
	defer closeAll()

	report, err := h.mediaService.UploadGalleryImages(c.Request.Context(), files)
	if err != nil {
		if report != nil && len(report.Uploaded) > 0 {
			redirectError(c, "/", apperror.Invalid(
				"uploaded "+plural(len(report.Uploaded), "image")+", then stopped at "+report.Failed+": "+err.Error()))
			return
		}
		redirectError(c, "/", err)
		return
	}

	redirectMessage(c, "/", "Uploaded "+plural(len(report.Uploaded), "image")+".")
}

func (h *PageHandler) UpdateAvatar(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		redirectError(c, "/", err)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		redirectError(c, "/?panel=profile", apperror.Invalid("please choose an image"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		redirectError(c, "/?panel=profile", apperror.Invalid("failed to read avatar"))
		return
	}
	defer file.Close()

	if _, err := h.profileService.UpdateAvatar(c.Request.Context(), userID, &commonDto.UploadFile{
		Reader:   file,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
	}); err != nil {
		redirectError(c, "/?panel=profile", err)
		return
	}

	redirectMessage(c, "/?panel=profile", "Avatar updated.")
}

func (h *PageHandler) ChangeTheme(c *gin.Context) {
	if _, err := theme.ChangeTheme(themeRepo.NewCookieStore(c), c.PostForm("color")); err != nil {
		redirectError(c, "/?modal=settings", err)
		return
	}
	redirectMessage(c, "/?modal=settings", "Color saved.")
}

func (h *PageHandler) ChangeFont(c *gin.Context) {
	if _, err := theme.ChangeFont(themeRepo.NewCookieStore(c), c.PostForm("font")); err != nil {
		redirectError(c, "/?modal=settings", err)
		return
	}
	redirectMessage(c, "/?modal=settings", "Font saved.")
}

func (h *PageHandler) ResetTheme(c *gin.Context) {
	theme.ResetSettings(themeRepo.NewCookieStore(c))
	redirectMessage(c, "/?modal=settings", "Settings reset.")
}

func redirectMessage(c *gin.Context, target, msg string) {
	c.Redirect(http.StatusSeeOther, withParam(target, "msg", msg))
}

func redirectError(c *gin.Context, target string, err error) {
	if apperror.MapErrorToStatus(err) == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("form action failed")
		err = apperror.ErrInternal
	}
	c.Redirect(http.StatusSeeOther, withParam(target, "error", err.Error()))
}

func withParam(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "/"
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
