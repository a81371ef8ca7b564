// Package models defines the domain entities shared by the playlist source, the video destination and the conversion engine.
//
//   - [Track] : a song read from the source playlist (name + ordered artist names)
//   - [Playlist] : source playlist metadata plus its playable tracks
//   - [Visibility] : access tier of a created destination playlist
//
// These are plain values: they are produced once per run and never persisted.
package models
