package service

import (
	"anoa.com/communityreview/internal/modules/theme/dto"
	"anoa.com/communityreview/internal/modules/theme/repository"
	"anoa.com/communityreview/pkg/apperror"
)

func DefaultSettings() dto.Settings {
	font, _ := resolveFont(DefaultFont)
	return dto.Settings{
		Color:      DefaultColor,
		Accent:     DefaultAccent,
		Hover:      hoverOf(DefaultAccent),
		Font:       font.key,
		FontFamily: font.family,
	}
}

func hoverOf(accent string) string {
	hover, err := AdjustBrightness(accent, hoverShift)
	if err != nil {
		return accent
	}
	return hover
}

// applyColor updates the color part of s; rainbow keeps the default accent
// underneath the gradient.
func applyColor(s *dto.Settings, value string) error {
	value = normalize(value)
	if value == RainbowKey {
		s.Color = RainbowKey
		s.Rainbow = true
		s.Accent = DefaultAccent
		s.Hover = hoverOf(DefaultAccent)
		return nil
	}

	hex, ok := resolveColor(value)
	if !ok {
		return apperror.Invalid("unknown color " + value)
	}
	s.Color = value
	s.Rainbow = false
	s.Accent = hex
	s.Hover = hoverOf(hex)
	return nil
}

func applyFont(s *dto.Settings, key string) error {
	font, ok := resolveFont(key)
	if !ok {
		return apperror.Invalid("unknown font " + key)
	}
	s.Font = font.key
	s.FontFamily = font.family
	return nil
}

// LoadThemeSettings replays the stored choices. A stored value that no
// longer resolves is ignored.
func LoadThemeSettings(store repository.PreferenceStore) dto.Settings {
	s := DefaultSettings()
	if color, ok := store.Get(repository.ColorKey); ok {
		_ = applyColor(&s, color)
	}
	if font, ok := store.Get(repository.FontKey); ok {
		_ = applyFont(&s, font)
	}
	return s
}

// ChangeTheme applies and persists a color. Invalid values are rejected and
// nothing is stored.
func ChangeTheme(store repository.PreferenceStore, value string) (dto.Settings, error) {
	s := LoadThemeSettings(store)
	if err := applyColor(&s, value); err != nil {
		return s, err
	}
	store.Set(repository.ColorKey, s.Color)
	return s, nil
}

func ChangeFont(store repository.PreferenceStore, key string) (dto.Settings, error) {
	s := LoadThemeSettings(store)
	if err := applyFont(&s, key); err != nil {
		return s, err
	}
	store.Set(repository.FontKey, s.Font)
	return s, nil
}

func ResetSettings(store repository.PreferenceStore) dto.Settings {
	store.Remove(repository.ColorKey)
	store.Remove(repository.FontKey)
	return DefaultSettings()
}

// BuildView marks which swatch and font selector is active.
func BuildView(s dto.Settings) dto.View {
	view := dto.View{Settings: s}

	for _, c := range palette {
		view.Swatches = append(view.Swatches, dto.Swatch{Key: c.key, Hex: c.hex, Active: c.key == s.Color})
	}
	view.Swatches = append(view.Swatches, dto.Swatch{Key: RainbowKey, Hex: DefaultAccent, Active: s.Rainbow})

	for _, f := range fonts {
		view.Fonts = append(view.Fonts, dto.FontOption{Key: f.key, Label: f.label, Family: f.family, Active: f.key == s.Font})
	}
	return view
}
