package handler

import (
	"net/http"

	profile "anoa.com/communityreview/internal/modules/profile/service"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	view, err := h.profileService.LoadUserProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ProfileHandler) UpdateAvatar(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.ResponseError(c, apperror.Invalid("avatar file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, apperror.Invalid("failed to read avatar"))
		return
	}
	defer file.Close()

	view, err := h.profileService.UpdateAvatar(c.Request.Context(), userID, &commonDto.UploadFile{
		Reader:   file,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
