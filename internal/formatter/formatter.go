// package formatter renders queues, metrics and history as console text and exports them (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

// StateIcon returns the marker shown next to the current track.
func StateIcon(state string) string {
	switch state {
	case "playing":
		return "▶️"
	case "paused":
		return "⏸️"
	default:
		return "⏹️"
	}
}

// QueueText lists the queue with 1-based numbers, marking the current track with the state icon.
func QueueText(st models.QueueState, state string) string {
	if len(st.Items) == 0 {
		return shared.ErrEmptyQueue.Error()
	}

	var buf strings.Builder
	for i, d := range st.Items {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if i == st.CurrentIndex {
			fmt.Fprintf(&buf, "%s %s", StateIcon(state), d)
		} else {
			fmt.Fprintf(&buf, "%d. %s", i+1, d)
		}
	}
	return buf.String()
}

// MetricsText is the operator view of the download folder.
func MetricsText(m models.FolderMetrics) string {
	return fmt.Sprintf("Downloads folder size: %.2f MB\nSize limit: %s MB\nTotal downloads: %d",
		m.TotalMB, strconv.FormatFloat(m.LimitMB, 'f', -1, 64), m.FileCount)
}

// DescriptorText shows a track with its link.
func DescriptorText(d models.Descriptor) string {
	if d.URL == "" {
		return d.String()
	}
	return fmt.Sprintf("%s\n   %s", d, d.URL)
}

// HistoryText lists plays, one per line.
func HistoryText(entries []*models.HistoryEntry) string {
	var buf strings.Builder
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte('\n')
		}
		title := e.Title
		if title == "" {
			title = e.MediaID
		}
		fmt.Fprintf(&buf, "%s  %s", e.PlayedAt.Local().Format(time.DateTime), title)
	}
	return buf.String()
}

// SplitIntoChunks breaks message into pieces of at most limit bytes, preferring to cut at newlines.
func SplitIntoChunks(message string, limit int) []string {
	if limit <= 0 {
		return []string{message}
	}

	var chunks []string
	for len(message) > limit {
		cut := strings.LastIndex(message[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, message[:cut])
		message = strings.TrimPrefix(message[cut:], "\n")
	}
	if message != "" {
		chunks = append(chunks, message)
	}
	return chunks
}

// ExportHistoryCSV converts history entries to CSV with columns: Sequence, Media ID, Title, URL, Played At
func ExportHistoryCSV(entries []*models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Media ID", "Title", "URL", "Played At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			strconv.Itoa(e.Sequence),
			e.MediaID,
			e.Title,
			e.URL,
			e.PlayedAt.UTC().Format(time.RFC3339),
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

// ExportQueueMarkdown converts the queue to Markdown with an optional cover image.
func ExportQueueMarkdown(st models.QueueState, title, imageFilename string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(st.Items))

	buf.WriteString("## Tracks\n\n")
	for i, d := range st.Items {
		marker := ""
		if i == st.CurrentIndex {
			marker = " (current)"
		}
		fmt.Fprintf(&buf, "%d. [%s](%s)%s\n", i+1, d, d.URL, marker)
	}
	return buf.Bytes()
}

// ExportQueueText converts the queue to plain text, one link per line.
func ExportQueueText(st models.QueueState) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(st.Items))
	for i, d := range st.Items {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, d, d.URL)
	}
	return buf.Bytes()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md for the queue and, when imageURL is set,
// {dir}/cover.jpg. A cover that cannot be downloaded is skipped with a warning.
func WriteMarkdownExport(st models.QueueState, outputDir, title, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "queue"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var cover string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			path := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(path, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
			} else {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, ExportQueueMarkdown(st, title, cover), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
