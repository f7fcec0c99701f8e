package handler

import (
	"net/http"
	"time"

	"anoa.com/communityreview/internal/middleware"
	"anoa.com/communityreview/internal/modules/user/dto"
	"anoa.com/communityreview/internal/modules/user/service"
	"anoa.com/communityreview/pkg/response"
	"anoa.com/communityreview/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	tokenTTL    time.Duration
}

func NewAuthHandler(authService service.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokenTTL:    tokenTTL,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	middleware.SetSessionCookie(c, res.AccessToken, h.tokenTTL)
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	middleware.SetSessionCookie(c, res.AccessToken, h.tokenTTL)
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		response.ResponseError(c, err)
		return
	}

	middleware.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
