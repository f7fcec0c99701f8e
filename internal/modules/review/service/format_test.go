package service

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStarsAlwaysFiveGlyphs(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		s := Stars(rating)
		assert.Equal(t, 5, utf8.RuneCountInString(s))

		runes := []rune(s)
		for i, r := range runes {
			if i < rating {
				assert.Equal(t, '★', r)
			} else {
				assert.Equal(t, '☆', r)
			}
		}
	}

	assert.Equal(t, "★★★☆☆", Stars(3))
	assert.Equal(t, "☆☆☆☆☆", Stars(-1))
	assert.Equal(t, "★★★★★", Stars(9))
}

func TestFormatAverage(t *testing.T) {
	tests := []struct {
		name  string
		count int64
		sum   int64
		want  string
	}{
		{"no reviews", 0, 0, "0.0"},
		{"five three four", 3, 12, "4.0"},
		{"single", 1, 5, "5.0"},
		{"half rounds up", 4, 9, "2.3"},
		{"repeating", 3, 13, "4.3"},
		{"two thirds", 3, 5, "1.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAverage(tt.count, tt.sum))
		})
	}
}

func TestFormatDateUsesLocation(t *testing.T) {
	ts := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	assert.Equal(t, "31/03/2024", FormatDate(ts, time.UTC))
	assert.Equal(t, "01/04/2024", FormatDate(ts, tokyo))
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "A", Initial("ana lima"))
	assert.Equal(t, "É", Initial(" élodie"))
	assert.Equal(t, "?", Initial(""))
}
