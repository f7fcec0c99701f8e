package service

const (
	ViewRegister  = "register"
	PanelProfile  = "profile"
	ModalSettings = "settings"
)

// Query is the part of the page URL that picks what is shown.
type Query struct {
	View  string `form:"view"`
	Panel string `form:"panel"`
	Modal string `form:"modal"`
}

// Visibility lists the named sections of the page and whether each is shown.
type Visibility struct {
	AuthSection   bool
	MainContent   bool
	LoginForm     bool
	RegisterForm  bool
	ProfilePanel  bool
	SettingsModal bool
}

// Navigate decides which sections are visible. The auth section and the
// main content are mutually exclusive; the settings modal is available
// in both.
func Navigate(authenticated bool, q Query) Visibility {
	v := Visibility{SettingsModal: q.Modal == ModalSettings}

	if !authenticated {
		v.AuthSection = true
		v.RegisterForm = q.View == ViewRegister
		v.LoginForm = !v.RegisterForm
		return v
	}

	v.MainContent = true
	v.ProfilePanel = q.Panel == PanelProfile
	return v
}
