package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oicur0t/logl-check/internal/report"
	"github.com/oicur0t/logl-check/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() report.Summary {
	results := []models.Match{{
		Path:       "/var/log/app.log",
		LinesCount: 12,
		Messages: []models.Message{
			{LineNumber: 3, Severity: models.SeverityCritical, Text: "boom\n"},
			{LineNumber: 3, Severity: models.SeverityWarning, Text: "boom\n"},
			{LineNumber: 9, Severity: models.SeverityCritical, Text: "again\n"},
		},
	}}
	kept := []models.KeptAlert{{
		Match:     models.Match{Path: "/var/log/app.log", Messages: []models.Message{{Severity: models.SeverityWarning}}},
		KeepUntil: time.Now().Add(time.Hour),
	}}
	return report.Aggregate(results, kept, true)
}

func TestObserve(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleSummary(), time.Unix(1700000000, 0))

	assert.Equal(t, float64(12), testutil.ToFloat64(r.lines.WithLabelValues("/var/log/app.log")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.matches.WithLabelValues("/var/log/app.log", "CRITICAL")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.matches.WithLabelValues("/var/log/app.log", "WARNING")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.keptAlerts.WithLabelValues("/var/log/app.log")))
	assert.Equal(t, float64(models.SeverityCritical), testutil.ToFloat64(r.status))
	assert.Equal(t, float64(1700000000), testutil.ToFloat64(r.lastRun))
}

func TestObserveFailure(t *testing.T) {
	r := NewRecorder()
	r.ObserveFailure(time.Unix(1700000000, 0))

	assert.Equal(t, float64(models.SeverityUnknown), testutil.ToFloat64(r.status))
}

func TestWriteFile(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleSummary(), time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "logl_check.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `logl_check_status 2`), out)
	assert.True(t, strings.Contains(out, `logl_check_lines_scanned{file="/var/log/app.log"} 12`), out)
}
