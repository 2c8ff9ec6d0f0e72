package models

import "time"

// Message is a multi-line log message reassembled by the scanner.
type Message struct {
	// LineNumber is the 1-based line the message starts on.
	LineNumber int64    `json:"line_number" yaml:"line_number" bson:"line_number"`
	Severity   Severity `json:"severity" yaml:"severity" bson:"severity"`
	// Text holds the joined lines, each with its trailing newline.
	Text string `json:"message" yaml:"message" bson:"message"`
}

// Match is the result of scanning one log stream in a single run.
type Match struct {
	Path           string    `json:"path" yaml:"path" bson:"path"`
	LinesCount     int64     `json:"lines_count" yaml:"lines_count" bson:"lines_count"`
	LastLineNumber int64     `json:"last_line_number" yaml:"last_line_number" bson:"last_line_number"`
	FileSize       int64     `json:"file_size" yaml:"file_size" bson:"file_size"`
	Modified       time.Time `json:"modified" yaml:"modified" bson:"modified"`
	Messages       []Message `json:"messages" yaml:"messages" bson:"messages"`
}

// Count returns the number of messages with the given severity.
func (m Match) Count(severity Severity) int {
	n := 0
	for _, msg := range m.Messages {
		if msg.Severity == severity {
			n++
		}
	}
	return n
}

// Severity returns the most urgent severity among the messages, or OK.
func (m Match) Severity() Severity {
	worst := SeverityOK
	for _, msg := range m.Messages {
		worst = Worse(worst, msg.Severity)
	}
	return worst
}

// KeptAlert is a match retained from an earlier run until KeepUntil.
type KeptAlert struct {
	Match     `yaml:",inline" bson:",inline"`
	KeepUntil time.Time `json:"keep_until" yaml:"keep_until" bson:"keep_until"`
}

// Active reports whether the alert still counts at now.
func (k KeptAlert) Active(now time.Time) bool {
	return !k.KeepUntil.Before(now)
}

// StreamState is the persisted scan progress of one log stream.
type StreamState struct {
	Path string `json:"path" yaml:"path" bson:"path"`
	Size int64  `json:"size" yaml:"size" bson:"size"`
	// Modified is the current file's modification time seen by the last run.
	// The zero value means the stream has never been scanned.
	Modified time.Time `json:"modified" yaml:"modified" bson:"modified"`
	// LineNumber is the last processed line of the current file, 0 for none.
	LineNumber int64       `json:"line_number" yaml:"line_number" bson:"line_number"`
	KeptAlerts []KeptAlert `json:"kept_alerts" yaml:"kept_alerts" bson:"kept_alerts"`
}

// Fresh reports whether the state has no record of a previous run.
func (s StreamState) Fresh() bool {
	return s.Modified.IsZero()
}
