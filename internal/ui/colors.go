package ui

// Accessors for the escape codes of the active theme.

func ColorReset() string     { return GetCurrentTheme().Reset }
func ColorRed() string       { return GetCurrentTheme().Error }
func ColorGreen() string     { return GetCurrentTheme().Success }
func ColorYellow() string    { return GetCurrentTheme().Warning }
func ColorBlue() string      { return GetCurrentTheme().Primary }
func ColorMagenta() string   { return GetCurrentTheme().Info }
func ColorCyan() string      { return GetCurrentTheme().Secondary }
func ColorBold() string      { return GetCurrentTheme().Bold }
func ColorUnderline() string { return GetCurrentTheme().Underline }

// Colorize wraps s in code and a reset. With the no-color theme, or an empty
// code, s is returned unchanged.
func Colorize(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + ColorReset()
}

// Provider implements the color interface of the errors package on top of
// the active theme.
type Provider struct{}

func (Provider) Yellow() string { return ColorYellow() }
func (Provider) Reset() string  { return ColorReset() }
