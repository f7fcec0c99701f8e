package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	RainbowKey   = "rainbow"
	DefaultColor = "blue"
	DefaultFont  = "default"

	DefaultAccent = "#007aff"

	// hoverShift darkens the accent for hover states, in percent.
	hoverShift = -20
)

type namedColor struct {
	key string
	hex string
}

var palette = []namedColor{
	{"blue", "#007aff"},
	{"purple", "#af52de"},
	{"green", "#34c759"},
	{"red", "#ff3b30"},
	{"orange", "#ff9500"},
	{"pink", "#ff2d55"},
}

type fontFace struct {
	key    string
	label  string
	family string
}

var fonts = []fontFace{
	{"default", "System", `-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif`},
	{"inter", "Inter", `"Inter", -apple-system, sans-serif`},
	{"roboto", "Roboto", `"Roboto", Arial, sans-serif`},
	{"poppins", "Poppins", `"Poppins", sans-serif`},
	{"montserrat", "Montserrat", `"Montserrat", sans-serif`},
	{"playfair", "Playfair Display", `"Playfair Display", Georgia, serif`},
	{"mono", "Monospace", `"SF Mono", "Fira Code", Menlo, Consolas, monospace`},
}

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// resolveColor maps a palette name or #rrggbb value to a hex color.
func resolveColor(value string) (string, bool) {
	value = normalize(value)
	for _, c := range palette {
		if c.key == value {
			return c.hex, true
		}
	}
	if hexColor.MatchString(value) {
		return value, true
	}
	return "", false
}

func resolveFont(key string) (fontFace, bool) {
	key = normalize(key)
	for _, f := range fonts {
		if f.key == key {
			return f, true
		}
	}
	return fontFace{}, false
}

// AdjustBrightness shifts every channel of a #rrggbb color by
// round(2.55*percent), clamping each channel to [0,255].
func AdjustBrightness(hex string, percent float64) (string, error) {
	hex = normalize(hex)
	if !hexColor.MatchString(hex) {
		return "", fmt.Errorf("invalid hex color %q", hex)
	}

	n, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return "", err
	}

	amt := int(math.Round(2.55 * percent))
	r := clamp(int(n>>16) + amt)
	g := clamp(int(n>>8&0xff) + amt)
	b := clamp(int(n&0xff) + amt)

	return fmt.Sprintf("#%02x%02x%02x", r, g, b), nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
