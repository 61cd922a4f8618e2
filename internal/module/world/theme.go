package world

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultTheme is the theme of a new world.
const DefaultTheme = "plains"

// Themes lists the accepted world themes.
var Themes = []string{"plains", "cherry", "ocean", "spruce", "cave", "nether", "end"}

const maxNameLength = 100

var cardStylePattern = regexp.MustCompile(`^[a-z0-9-]{0,32}$`)

// IsValidTheme reports whether theme is one of Themes.
func IsValidTheme(theme string) bool {
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}

// IsValidCardStyle reports whether style is an acceptable card style token.
// The empty string selects the default style.
func IsValidCardStyle(style string) bool {
	return cardStylePattern.MatchString(style)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
