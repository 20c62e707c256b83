package core

import (
	"fmt"
	"strings"
)

// PermissionState is the device location-permission state.
type PermissionState int

const (
	PermissionUndetermined PermissionState = iota
	PermissionDenied
	PermissionAuthorized
)

func (p PermissionState) String() string {
	switch p {
	case PermissionDenied:
		return "denied"
	case PermissionAuthorized:
		return "authorized"
	default:
		return "undetermined"
	}
}

// ParsePermissionState converts "undetermined", "denied" or "authorized".
func ParsePermissionState(s string) (PermissionState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "undetermined", "":
		return PermissionUndetermined, nil
	case "denied":
		return PermissionDenied, nil
	case "authorized":
		return PermissionAuthorized, nil
	default:
		return PermissionUndetermined, fmt.Errorf("unknown permission state: %q", s)
	}
}

// ThemeMode is the UI appearance.
type ThemeMode int

const (
	ThemeLight ThemeMode = iota
	ThemeDark
)

func (t ThemeMode) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// ParseThemeMode converts "light" or "dark".
func ParseThemeMode(s string) (ThemeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	default:
		return ThemeLight, fmt.Errorf("unknown theme mode: %q", s)
	}
}

// Visibility is what the map surface shows for a permission/theme pair.
type Visibility struct {
	OverlayHidden bool `json:"overlayHidden"`
	UseNightTiles bool `json:"useNightTiles"`
}
