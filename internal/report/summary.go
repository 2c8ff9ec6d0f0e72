package report

import (
	"github.com/oicur0t/logl-check/pkg/models"
)

// Summary is the overall verdict of a check run.
type Summary struct {
	Severity  models.Severity `json:"severity" yaml:"severity"`
	Warnings  int             `json:"warnings" yaml:"warnings"`
	Criticals int             `json:"criticals" yaml:"criticals"`
	Lines     int64           `json:"lines" yaml:"lines"`
	Files     int             `json:"files" yaml:"files"`

	RetentionEnabled bool `json:"retention_enabled" yaml:"retention_enabled"`
	KeptWarnings     int  `json:"kept_warnings,omitempty" yaml:"kept_warnings,omitempty"`
	KeptCriticals    int  `json:"kept_criticals,omitempty" yaml:"kept_criticals,omitempty"`

	Results []models.Match     `json:"results" yaml:"results"`
	Kept    []models.KeptAlert `json:"kept,omitempty" yaml:"kept,omitempty"`
}

// Aggregate combines this run's results and the kept alerts carried over
// from earlier runs into one verdict. Kept alerts only count when
// retention is enabled.
func Aggregate(results []models.Match, kept []models.KeptAlert, retentionEnabled bool) Summary {
	s := Summary{
		Severity:         models.SeverityOK,
		Files:            len(results),
		RetentionEnabled: retentionEnabled,
		Results:          results,
	}

	for _, r := range results {
		s.Warnings += r.Count(models.SeverityWarning)
		s.Criticals += r.Count(models.SeverityCritical)
		s.Lines += r.LinesCount
		s.Severity = models.Worse(s.Severity, r.Severity())
	}

	if !retentionEnabled {
		return s
	}

	s.Kept = kept
	for _, k := range kept {
		s.KeptWarnings += k.Count(models.SeverityWarning)
		s.KeptCriticals += k.Count(models.SeverityCritical)
		s.Severity = models.Worse(s.Severity, k.Severity())
	}
	return s
}
