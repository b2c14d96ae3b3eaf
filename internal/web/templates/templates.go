// Package templates holds the server-rendered HTML of the map UI. Components
// are written in .templ files; the _templ.go files are generated by
// `templ generate` and committed.
package templates

import "github.com/JonMunkholm/restroom-map/internal/core"

// UnnamedPlace is shown when a record has no name.
const UnnamedPlace = "(Unnamed)"

// LatLng is a map position in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapView is the initial map state handed to the page.
type MapView struct {
	Center      LatLng `json:"center"`
	Zoom        int    `json:"zoom"`
	TileURL     string `json:"tile_url"`
	Attribution string `json:"attribution"`
}

func displayName(rec core.EffectiveRecord) string {
	if rec.Name == "" {
		return UnnamedPlace
	}
	return rec.Name
}
