// Package visibility maps permission and theme state onto what the map
// surface shows.
package visibility

import "github.com/groupride/convoy/pkg/core"

// Compute returns the visibility for a permission/theme pair. The permission
// prompt overlay is hidden only once location access is authorized; night
// tiles follow the dark theme.
func Compute(p core.PermissionState, t core.ThemeMode) core.Visibility {
	return core.Visibility{
		OverlayHidden: p == core.PermissionAuthorized,
		UseNightTiles: t == core.ThemeDark,
	}
}
