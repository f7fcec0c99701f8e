package service

import (
	"testing"

	"anoa.com/communityreview/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYouTubeID(t *testing.T) {
	valid := []string{
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ?version=3",
		"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ#t=42",
		"https://www.youtube.com/u/x/dQw4w9WgXcQ",
	}
	for _, u := range valid {
		t.Run(u, func(t *testing.T) {
			id, err := ParseYouTubeID(u)
			require.NoError(t, err)
			assert.Equal(t, "dQw4w9WgXcQ", id)
		})
	}

	invalid := []string{
		"https://youtu.be/dQw4w9W",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQextra",
		"https://vimeo.com/12345678901",
		"",
	}
	for _, u := range invalid {
		t.Run("reject "+u, func(t *testing.T) {
			_, err := ParseYouTubeID(u)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}
}

func TestEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", EmbedURL("dQw4w9WgXcQ"))
}
