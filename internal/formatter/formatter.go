// package formatter renders source playlists (text, CSV, Markdown, JSON) and conversion progress lines
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// Format names an export format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists the accepted export formats.
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want text, csv, markdown or json)", shared.ErrInvalidFlag, s)
}

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	switch f {
	case CSV:
		return "csv"
	case Markdown:
		return "md"
	case JSON:
		return "json"
	default:
		return "txt"
	}
}

// Export renders p in format f.
func Export(p *models.Playlist, f Format) ([]byte, error) {
	switch f {
	case Text:
		return ExportToText(p), nil
	case CSV:
		return ExportToCSV(p)
	case Markdown:
		return ExportToMarkdown(p), nil
	case JSON:
		return ExportToJSON(p)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
}

// ExportToCSV converts a playlist to CSV with columns: Position, Title, Artists, Album, Spotify ID
func ExportToCSV(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artists", "Album", "Spotify ID"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, t := range p.Tracks {
		record := []string{strconv.Itoa(i + 1), t.Name, t.ArtistLabel(), t.Album, t.ID}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to a Markdown document
func ExportToMarkdown(p *models.Playlist) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}
	if p.Owner != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", p.Owner)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(p.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, t := range p.Tracks {
		album := ""
		if t.Album != "" {
			album = fmt.Sprintf(" (%s)", t.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, t.ArtistLabel(), t.Name, album)
	}
	return buf.Bytes()
}

// ExportToText converts a playlist to plain text
func ExportToText(p *models.Playlist) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(p.Tracks))

	for i, t := range p.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, t)
	}
	return buf.Bytes()
}

// ExportToJSON converts a playlist, tracks included, to indented JSON
func ExportToJSON(p *models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders p and writes it to path.
//
// Defaults to {playlist.ID}_tracks.{ext} as the filename.
func WriteExport(p *models.Playlist, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", p.ID, f.Ext())
	}

	data, err := Export(p, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
