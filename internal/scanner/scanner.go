package scanner

import (
	"context"
	"regexp"
	"strings"

	"github.com/nxadm/tail"
	"github.com/oicur0t/logl-check/pkg/models"
	"go.uber.org/zap"
)

// Scanner reads the files of a plan and collects the messages that match
// the configured patterns.
type Scanner struct {
	boundary *regexp.Regexp
	patterns []Pattern
	logger   *zap.Logger
}

// New creates a Scanner. A nil boundary never starts a new message, so
// every file is read as one message.
func New(boundary *regexp.Regexp, patterns []Pattern, logger *zap.Logger) *Scanner {
	return &Scanner{
		boundary: boundary,
		patterns: patterns,
		logger:   logger,
	}
}

// Scan reads the plan's files in order and returns the stream's result.
// Any read error discards the partial result.
func (s *Scanner) Scan(ctx context.Context, stream Stream, plan Plan) (models.Match, error) {
	current := plan.Current()
	result := models.Match{
		Path:           stream.Path,
		LastLineNumber: plan.ResumeLine,
		FileSize:       current.Size,
		Modified:       current.ModTime,
	}

	for i, f := range plan.Files {
		if err := ctx.Err(); err != nil {
			return models.Match{}, err
		}

		var skip int64
		if i == 0 {
			skip = plan.ResumeLine
		}

		last, err := s.scanFile(f.Path, skip, &result)
		if err != nil {
			return models.Match{}, err
		}
		result.LastLineNumber = last

		s.logger.Debug("Scanned file",
			zap.String("stream", stream.Path),
			zap.String("file", f.Path),
			zap.Int64("skipped", skip),
			zap.Int64("last_line", last))
	}

	return result, nil
}

// scanFile reads path from its first line, ignoring lines up to skip, and
// returns the number of the last line seen (skip if none was read).
func (s *Scanner) scanFile(path string, skip int64, result *models.Match) (int64, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    false,
		MustExist: true,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return 0, &Error{Op: "open", Path: path, Err: err}
	}

	var (
		lineNumber int64
		message    models.Message
		readErr    error
	)

	// The channel is drained even after an error so the tail goroutine can
	// finish.
	for line := range t.Lines {
		if readErr != nil {
			continue
		}
		if line.Err != nil {
			readErr = line.Err
			continue
		}

		lineNumber++
		if lineNumber <= skip {
			continue
		}

		text := strings.TrimSuffix(line.Text, "\r")
		if s.boundary != nil && s.boundary.MatchString(text) {
			s.finish(message, result)
			message = models.Message{}
		}
		if message.Text == "" {
			message.LineNumber = lineNumber
			message.Severity = models.SeverityUnknown
		}
		message.Text += text + "\n"
		result.LinesCount++
	}

	if err := t.Wait(); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return 0, &Error{Op: "read", Path: path, Err: readErr}
	}

	s.finish(message, result)

	if lineNumber < skip {
		return skip, nil
	}
	return lineNumber, nil
}

// finish classifies a completed message and keeps every tagged copy.
func (s *Scanner) finish(message models.Message, result *models.Match) {
	if message.Text == "" {
		return
	}
	result.Messages = append(result.Messages, Classify(message, s.patterns)...)
}
