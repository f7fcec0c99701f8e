package dto

type ChangeThemeInput struct {
	Color string `json:"color" form:"color" binding:"required"`
}

type ChangeFontInput struct {
	Font string `json:"font" form:"font" binding:"required"`
}

// Settings is the resolved look of the page for one browser.
type Settings struct {
	Color      string `json:"color"`
	Accent     string `json:"accent"`
	Hover      string `json:"hover"`
	Rainbow    bool   `json:"rainbow"`
	Font       string `json:"font"`
	FontFamily string `json:"font_family"`
}

type Swatch struct {
	Key    string `json:"key"`
	Hex    string `json:"hex"`
	Active bool   `json:"active"`
}

type FontOption struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Family string `json:"family"`
	Active bool   `json:"active"`
}

type View struct {
	Settings Settings     `json:"settings"`
	Swatches []Swatch     `json:"swatches"`
	Fonts    []FontOption `json:"fonts"`
}
