package scanner

import (
	"regexp"
	"testing"

	"github.com/oicur0t/logl-check/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_OneCopyPerMatchingPattern(t *testing.T) {
	msg := models.Message{LineNumber: 7, Severity: models.SeverityUnknown, Text: "disk full: write failed\n"}
	patterns := []Pattern{
		{Severity: models.SeverityWarning, Regexp: regexp.MustCompile(`disk`)},
		{Severity: models.SeverityCritical, Regexp: regexp.MustCompile(`timeout`)},
		{Severity: models.SeverityCritical, Regexp: regexp.MustCompile(`failed`)},
	}

	got := Classify(msg, patterns)

	require.Len(t, got, 2)
	assert.Equal(t, models.SeverityWarning, got[0].Severity)
	assert.Equal(t, models.SeverityCritical, got[1].Severity)
	for _, m := range got {
		assert.Equal(t, int64(7), m.LineNumber)
		assert.Equal(t, msg.Text, m.Text)
	}
	assert.Equal(t, models.SeverityUnknown, msg.Severity, "source message must not be modified")
}

func TestClassify_NoMatch(t *testing.T) {
	msg := models.Message{LineNumber: 1, Text: "all good\n"}
	patterns := []Pattern{{Severity: models.SeverityCritical, Regexp: regexp.MustCompile(`ERROR`)}}

	assert.Empty(t, Classify(msg, patterns))
	assert.Empty(t, Classify(msg, nil))
}

func TestClassify_SamePatternTwiceIsNotDeduplicated(t *testing.T) {
	msg := models.Message{LineNumber: 3, Text: "ERROR boom\n"}
	re := regexp.MustCompile(`ERROR`)
	patterns := []Pattern{
		{Severity: models.SeverityWarning, Regexp: re},
		{Severity: models.SeverityCritical, Regexp: re},
	}

	got := Classify(msg, patterns)
	require.Len(t, got, 2)
	assert.Equal(t, []models.Severity{models.SeverityWarning, models.SeverityCritical},
		[]models.Severity{got[0].Severity, got[1].Severity})
}

func TestClassify_EndAnchorMatchesLastLine(t *testing.T) {
	patterns := []Pattern{{Severity: models.SeverityWarning, Regexp: regexp.MustCompile(`retrying$`)}}

	got := Classify(models.Message{LineNumber: 2, Text: "[WARN] upstream down, retrying\n"}, patterns)
	require.Len(t, got, 1)
	assert.Equal(t, "[WARN] upstream down, retrying\n", got[0].Text)

	assert.Empty(t, Classify(models.Message{LineNumber: 2, Text: "[WARN] retrying\n  at frame 1\n"}, patterns))
}
