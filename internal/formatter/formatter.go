// package formatter renders lists of equipment, loans, users, reservations and
// maintenance records to export formats (CSV, JSON, YAML, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/equipx/internal/shared"
	"gopkg.in/yaml.v3"
)

// Table is a flattened list: one header row and string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Len is the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Records returns each row keyed by header. Used when no raw data is given
// for the structured formats.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// Format is an export format.
type Format string

const (
	CSV      Format = "csv"
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, JSON, YAML, Markdown, Text}

// ParseFormat accepts a format name or a common alias (md, text, yml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrUnknownFormat, s)
}

// Extension is the file extension, without the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// ToCSV renders the table as CSV. Fields containing a comma, quote or line break,
// or starting with a space, are quoted and embedded quotes doubled.
func ToCSV(t Table) ([]byte, error) {
	if t.Len() == 0 {
		return nil, shared.ErrNoData
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range t.Rows {
		if err := writer.Write(pad(row, len(t.Headers))); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON marshals v; nil is treated as missing data.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if v == nil {
		return nil, shared.ErrNoData
	}
	data, err := shared.MarshalJSON(v, pretty)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ToYAML marshals v using the yaml struct tags of the models.
func ToYAML(v any) ([]byte, error) {
	if v == nil {
		return nil, shared.ErrNoData
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMarkdown renders a titled Markdown table.
func ToMarkdown(title string, t Table) ([]byte, error) {
	if t.Len() == 0 {
		return nil, shared.ErrNoData
	}

	var buf bytes.Buffer
	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Rows**: %d\n\n", t.Len()))

	writeRow := func(cells []string) {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = strings.NewReplacer("|", `\|`, "\n", " ").Replace(c)
		}
		buf.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}

	writeRow(t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range t.Rows {
		writeRow(pad(row, len(t.Headers)))
	}

	return buf.Bytes(), nil
}

// ToText renders a bordered plain-text table under an optional title.
func ToText(title string, t Table) ([]byte, error) {
	if t.Len() == 0 {
		return nil, shared.ErrNoData
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = pad(row, len(t.Headers))
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(rows...)

	var buf bytes.Buffer
	if title != "" {
		buf.WriteString(fmt.Sprintf("%s (%d)\n\n", title, t.Len()))
	}
	buf.WriteString(tbl.String())
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Export renders the data in format. raw is the unflattened list used by the
// structured formats; when nil the table records are used instead.
//
// A fetched but empty list exports as [] in JSON and YAML. The tabular formats
// have nothing to show and return [shared.ErrNoData].
func Export(format Format, title string, t Table, raw any) ([]byte, error) {
	structured := raw
	if structured == nil && t.Len() > 0 {
		structured = t.Records()
	}

	switch format {
	case CSV:
		return ToCSV(t)
	case JSON:
		if structured != nil && t.Len() == 0 {
			return []byte("[]\n"), nil
		}
		return ToJSON(structured, true)
	case YAML:
		if structured != nil && t.Len() == 0 {
			return []byte("[]\n"), nil
		}
		return ToYAML(structured)
	case Markdown:
		return ToMarkdown(title, t)
	case Text:
		return ToText(title, t)
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrUnknownFormat, format)
}

// WriteExport renders the data and writes it to path, creating parent directories.
//
// Defaults to {name}.{ext} in the working directory when path is empty.
func WriteExport(path, name string, format Format, title string, t Table, raw any) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", name, format.Extension())
	}

	data, err := Export(format, title, t, raw)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(path string, v any) error {
	data, err := ToJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
