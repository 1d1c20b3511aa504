// Package ui holds the terminal color themes of fibeval. The cli, config and
// errors packages read their escape codes from the active theme, so a single
// switch (-no-color, NO_COLOR or FIBEVAL_THEME) controls all output.
package ui

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// Theme maps each output role to an ANSI escape code.
type Theme struct {
	Name string
	// Primary highlights values: F(n), indices, digit counts.
	Primary string
	// Secondary is used for labels and less prominent text.
	Secondary string
	// Success marks exact results and passed consistency checks.
	Success string
	// Warning marks durations, insufficient precision and cancellations.
	Warning string
	// Error marks failures and backend mismatches.
	Error string
	// Info marks algorithm names and headings.
	Info      string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme is the default, for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme uses darker tones for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;54m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape codes at all.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// ThemeEnvVar selects a theme by name when colors are enabled.
const ThemeEnvVar = "FIBEVAL_THEME"

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme installs t. Tests use it to restore the previous theme.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// LookupTheme returns the theme registered under name, case-insensitively.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ThemeNames returns the known theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetTheme activates the theme called name. Unknown names select the dark
// theme and report false.
func SetTheme(name string) bool {
	t, ok := LookupTheme(name)
	if !ok {
		t = DarkTheme
	}
	SetCurrentTheme(t)
	return ok
}

// InitTheme picks the startup theme. Colors are disabled by noColor, by a
// NO_COLOR variable of any value (https://no-color.org/) or by TERM=dumb.
// Otherwise FIBEVAL_THEME chooses among the known themes, dark by default.
func InitTheme(noColor bool) {
	if noColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists || os.Getenv("TERM") == "dumb" {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetTheme(os.Getenv(ThemeEnvVar))
}
