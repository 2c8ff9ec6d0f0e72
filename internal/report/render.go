package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oicur0t/logl-check/pkg/models"
	"gopkg.in/yaml.v3"
)

// ResultName prefixes the status line, as monitoring hosts expect.
const ResultName = "LOGFILES"

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render writes the summary in the given format. Text output starts with
// the status line; the structured formats carry the same data.
func Render(w io.Writer, s Summary, format string) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, Text(s))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(s); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// StatusLine returns the first line of the text report.
func StatusLine(s Summary) string {
	line := fmt.Sprintf("%s %s: %d warnings and %d criticals in %d lines of %d files",
		ResultName, s.Severity, s.Warnings, s.Criticals, s.Lines, s.Files)
	if s.RetentionEnabled {
		line += fmt.Sprintf(" (kept: %d warnings and %d criticals)", s.KeptWarnings, s.KeptCriticals)
	}
	return line
}

// Text renders the status line followed by the matched messages per file.
func Text(s Summary) string {
	var b strings.Builder
	b.WriteString(StatusLine(s))
	b.WriteString("\n")

	for _, r := range s.Results {
		if len(r.Messages) == 0 {
			continue
		}
		fmt.Fprintf(&b, "File: %s\n", r.Path)
		writeMessages(&b, r.Messages)
	}

	for _, k := range s.Kept {
		if len(k.Messages) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Kept: %s (until %s)\n", k.Path, k.KeepUntil.Format(time.RFC3339))
		writeMessages(&b, k.Messages)
	}
	return b.String()
}

// Unknown renders the status line of a run that failed.
func Unknown(err error) string {
	return fmt.Sprintf("%s %s: %v\n", ResultName, models.SeverityUnknown, err)
}

func writeMessages(b *strings.Builder, messages []models.Message) {
	for _, m := range messages {
		fmt.Fprintf(b, "%s(%d): %s\n", m.Severity, m.LineNumber, strings.TrimSuffix(m.Text, "\n"))
	}
}
