package handler

import (
	"mime/multipart"
	"net/http"

	"anoa.com/communityreview/internal/modules/media/dto"
	media "anoa.com/communityreview/internal/modules/media/service"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/response"
	"anoa.com/communityreview/pkg/validator"
	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaService media.MediaService
}

func NewMediaHandler(mediaService media.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

func (h *MediaHandler) GetVideo(c *gin.Context) {
	video, err := h.mediaService.LoadVideo(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": video})
}

func (h *MediaHandler) UploadVideo(c *gin.Context) {
	var input dto.UploadVideoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	video, err := h.mediaService.UploadVideo(c.Request.Context(), input.URL)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "video updated", "data": video})
}

func (h *MediaHandler) GetGallery(c *gin.Context) {
	images, err := h.mediaService.LoadGallery(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": images})
}

func (h *MediaHandler) UploadGallery(c *gin.Context) {
	files, closeAll, err := OpenFormFiles(c, "images")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer closeAll()

	report, err := h.mediaService.UploadGalleryImages(c.Request.Context(), files)
	if err != nil {
		if report == nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(apperror.MapErrorToStatus(err), gin.H{"error": err.Error(), "data": report})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "images uploaded", "data": report})
}

// OpenFormFiles opens every file sent under field, in form order.
func OpenFormFiles(c *gin.Context, field string) ([]*commonDto.UploadFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, apperror.Invalid("expected a multipart form")
	}

	headers := form.File[field]
	if len(headers) == 0 {
		return nil, func() {}, apperror.Invalid("please select at least one image")
	}

	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]*commonDto.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperror.Invalid("failed to read " + fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, &commonDto.UploadFile{
			Reader:   f,
			FileName: fh.Filename,
			Size:     fh.Size,
		})
	}

	return files, closeAll, nil
}
