// Package csvexport serializes table rows as CSV and delivers them as downloads.
package csvexport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leadcatalyst/leadchat/pkg/logger"
	"github.com/leadcatalyst/leadchat/pkg/table"
)

// ContentType is the MIME type of exported files.
const ContentType = "text/csv;charset=utf-8"

const lineSep = "\r\n"

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = errors.New("no data to export")

// Encode renders rows as CSV text. Columns come from the first row; a column missing
// from a later row yields an empty cell and extra keys in later rows are dropped.
// Lines are CRLF separated with no trailing line break.
func Encode(rows []table.Row) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoRows
	}
	cols := table.Columns(rows)

	lines := make([]string, 0, len(rows)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = quoteString(c)
	}
	lines = append(lines, strings.Join(header, ","))

	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			v, ok := r.Get(c)
			if ok {
				cells[i] = Field(v)
			}
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, lineSep), nil
}

// Field encodes a single cell value.
func Field(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return quoteString(v.Str)
	case gjson.JSON:
		return quote(string(table.Compact(v)))
	default:
		return table.Text(v)
	}
}

// quoteString quotes s only when it holds a comma, a double quote or a newline.
func quoteString(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Write streams the CSV text for rows to w.
func Write(w io.Writer, rows []table.Row) error {
	text, err := Encode(rows)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// ExportFile writes rows to path. Empty input is a logged no-op.
func ExportFile(path string, rows []table.Row) error {
	if len(rows) == 0 {
		logger.WarnCF("export", "No data to export", map[string]interface{}{"file": path})
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.ErrorCF("export", "Error exporting to CSV", map[string]interface{}{"error": err.Error()})
			return fmt.Errorf("export csv: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		logger.ErrorCF("export", "Error exporting to CSV", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("export csv: %w", err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		logger.ErrorCF("export", "Error exporting to CSV", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("export csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	logger.InfoCF("export", "CSV exported", map[string]interface{}{
		"file": path,
		"rows": len(rows),
	})
	return nil
}

// AttachmentName sanitizes a caller supplied download name, keeping it a .csv file.
func AttachmentName(name, fallback string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == '\\' || r == '/' {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}
