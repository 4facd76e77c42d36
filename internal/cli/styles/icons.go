package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconGlobe    = ""
	IconVersion  = ""
	IconGo       = ""
	IconDoctor   = ""
	IconCheck    = ""
	IconX        = ""
	IconWarning  = ""
	IconInfo     = ""
	IconPackage  = ""
	IconFolder   = ""
	IconConfig   = ""
	IconDatabase = ""
	IconCookie   = ""
	IconImage    = ""
)
