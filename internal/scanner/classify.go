package scanner

import (
	"regexp"
	"strings"

	"github.com/oicur0t/logl-check/pkg/models"
)

// Pattern tags a regular expression with the severity it triggers.
type Pattern struct {
	Severity models.Severity
	Regexp   *regexp.Regexp
}

// Classify tries every pattern against the message text in order and
// returns one copy of the message per matching pattern, carrying that
// pattern's severity. A message matching nothing yields nil. The final
// newline is not part of the matched text, so `$` anchors at the end of
// the last line.
func Classify(msg models.Message, patterns []Pattern) []models.Message {
	subject := strings.TrimSuffix(msg.Text, "\n")

	var out []models.Message
	for _, p := range patterns {
		if p.Regexp.MatchString(subject) {
			tagged := msg
			tagged.Severity = p.Severity
			out = append(out, tagged)
		}
	}
	return out
}
