// package models defines the data model for the playlist converter
package models

import (
	"fmt"
	"strings"
)

// UnknownArtist is displayed for tracks whose artist list is empty.
const UnknownArtist = "Unknown Artist"

// Track is a single song entry from the source playlist.
type Track struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

// ArtistLabel joins artist names for display, falling back to [UnknownArtist].
func (t Track) ArtistLabel() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		return UnknownArtist
	}
	return strings.Join(names, ", ")
}

// Query is the base search text for the track: "<name> <artists>".
func (t Track) Query() string {
	return t.Name + " " + t.ArtistLabel()
}

// String renders "<name> - <artists>".
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Name, t.ArtistLabel())
}

// Playlist is source playlist metadata along with its playable tracks.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Owner       string  `json:"owner,omitempty"`
	Tracks      []Track `json:"tracks"`
}

// Visibility is the privacy status of a destination playlist.
type Visibility string

const (
	Public   Visibility = "public"
	Private  Visibility = "private"
	Unlisted Visibility = "unlisted"
)

// Valid reports whether v is one of the accepted tiers.
func (v Visibility) Valid() bool {
	switch v {
	case Public, Private, Unlisted:
		return true
	}
	return false
}

// ParseVisibility lowercases s and coerces anything unrecognized to [Private].
// The boolean is false when coercion happened.
func ParseVisibility(s string) (Visibility, bool) {
	v := Visibility(strings.ToLower(strings.TrimSpace(s)))
	if v.Valid() {
		return v, true
	}
	return Private, false
}

// PlaylistLink returns the public URL of a destination playlist.
func PlaylistLink(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}
