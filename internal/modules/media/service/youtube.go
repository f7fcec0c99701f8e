package service

import (
	"net/http"
	"regexp"

	"anoa.com/communityreview/pkg/apperror"
)

const youtubeIDLength = 11

var youtubeURLPattern = regexp.MustCompile(`^.*(youtu.be\/|v\/|u\/\w\/|embed\/|watch\?v=|\&v=)([^#\&\?]*).*`)

var ErrInvalidVideoURL = apperror.New(http.StatusBadRequest, "invalid YouTube URL", apperror.ErrInvalidInput)

// ParseYouTubeID extracts the video id from the usual YouTube URL shapes
// (youtu.be/, /v/, /u/x/, /embed/, watch?v=, &v=).
func ParseYouTubeID(rawURL string) (string, error) {
	m := youtubeURLPattern.FindStringSubmatch(rawURL)
	if m == nil || len(m[2]) != youtubeIDLength {
		return "", ErrInvalidVideoURL
	}
	return m[2], nil
}

func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}
