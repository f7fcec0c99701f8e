package service

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"anoa.com/communityreview/internal/entity"
	"github.com/shopspring/decimal"
)

const (
	filledStar = "★"
	emptyStar  = "☆"

	DateLayout = "02/01/2006"
)

// Stars renders rating as exactly five glyphs, the first rating filled.
// Out of range values are clamped.
func Stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > entity.MaxRating {
		rating = entity.MaxRating
	}
	return strings.Repeat(filledStar, rating) + strings.Repeat(emptyStar, entity.MaxRating-rating)
}

// FormatAverage returns sum/count with one decimal, halves rounded away
// from zero. No reviews gives "0.0".
func FormatAverage(count, sum int64) string {
	if count <= 0 {
		return "0.0"
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).StringFixed(1)
}

func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// Initial is the upper-cased first letter shown when there is no avatar.
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
