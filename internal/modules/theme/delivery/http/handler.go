package handler

import (
	"net/http"

	"anoa.com/communityreview/internal/modules/theme/dto"
	"anoa.com/communityreview/internal/modules/theme/repository"
	theme "anoa.com/communityreview/internal/modules/theme/service"
	"anoa.com/communityreview/pkg/response"
	"anoa.com/communityreview/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ThemeHandler struct{}

func NewThemeHandler() *ThemeHandler {
	return &ThemeHandler{}
}

func (h *ThemeHandler) GetTheme(c *gin.Context) {
	settings := theme.LoadThemeSettings(repository.NewCookieStore(c))
	c.JSON(http.StatusOK, theme.BuildView(settings))
}

func (h *ThemeHandler) ChangeTheme(c *gin.Context) {
	var input dto.ChangeThemeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	settings, err := theme.ChangeTheme(repository.NewCookieStore(c), input.Color)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, theme.BuildView(settings))
}

func (h *ThemeHandler) ChangeFont(c *gin.Context) {
	var input dto.ChangeFontInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	settings, err := theme.ChangeFont(repository.NewCookieStore(c), input.Font)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, theme.BuildView(settings))
}

func (h *ThemeHandler) ResetTheme(c *gin.Context) {
	settings := theme.ResetSettings(repository.NewCookieStore(c))
	c.JSON(http.StatusOK, theme.BuildView(settings))
}
