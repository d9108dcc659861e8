// package formatter renders playlists and track lists as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// Format names an export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	Text     Format = "txt"
)

// ParseFormat accepts a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text", "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want csv, md or txt)", shared.ErrInvalidInput, s)
	}
}

// Export renders playlist in format. thumbnailTemplate is only used by Markdown.
func Export(format Format, playlist *models.PlaylistWithTracks, thumbnailTemplate string) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(playlist.Tracks)
	case Markdown:
		return ExportToMarkdown(playlist, thumbnailTemplate)
	case Text:
		return ExportToText(playlist.Name, playlist.Tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}
}

// ExportToCSV converts tracks to CSV with columns: ID, MediaID, Title, Artist, Genre, Duration
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "MediaID", "Title", "Artist", "Genre", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.LocalID,
			track.ExternalMediaID,
			track.Title,
			track.Artist,
			track.Genre,
			strconv.Itoa(int(track.DurationSeconds)),
		}
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

// ExportToMarkdown converts a playlist to Markdown, using the first track's thumbnail as the cover
func ExportToMarkdown(playlist *models.PlaylistWithTracks, thumbnailTemplate string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)

	if len(playlist.Tracks) > 0 {
		if cover := playlist.Tracks[0].ThumbnailURL(thumbnailTemplate); cover != "" {
			fmt.Fprintf(&buf, "![Cover](%s)\n\n", cover)
		}
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(playlist.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", FormatDuration(TotalDuration(playlist.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range playlist.Tracks {
		genrePart := ""
		if track.Genre != "" {
			genrePart = fmt.Sprintf(" (%s)", track.Genre)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, genrePart, FormatDuration(track.Duration()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a titled track list to plain text
func ExportToText(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	return buf.Bytes(), nil
}

// ExportHistory renders listening history as plain text, newest first as given
func ExportHistory(entries []models.HistoryEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		when := "unknown"
		if !e.PlayedAt.IsZero() {
			when = e.PlayedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&buf, "%s  %s - %s\n", when, e.Track.Artist, e.Track.Title)
	}
	return buf.Bytes()
}

// WriteExport renders playlist and writes it to path.
//
// Defaults to {playlist.ID}.{format} as the filename.
func WriteExport(format Format, playlist *models.PlaylistWithTracks, thumbnailTemplate, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", playlist.ID, format)
	}

	data, err := Export(format, playlist, thumbnailTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// TotalDuration sums the known track durations.
func TotalDuration(tracks []models.Track) time.Duration {
	var total time.Duration
	for _, t := range tracks {
		total += t.Duration()
	}
	return total
}

// FormatDuration renders d as m:ss, or h:mm:ss past an hour.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
