package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Severity classifies a message or a whole check run. The numeric value is
// the monitoring plugin status code.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
	SeverityUnknown
)

var severityNames = [...]string{
	SeverityOK:       "OK",
	SeverityWarning:  "WARNING",
	SeverityCritical: "CRITICAL",
	SeverityUnknown:  "UNKNOWN",
}

func (s Severity) String() string {
	if s < SeverityOK || s > SeverityUnknown {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity converts a severity name back into a Severity.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return SeverityUnknown, fmt.Errorf("unknown severity %q", name)
}

// Worse returns the more urgent of a and b.
func Worse(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// MarshalText encodes the severity by name for JSON and YAML.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityOK || s > SeverityUnknown {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalBSONValue stores the severity as its name so BSON state files read
// the same as JSON ones.
func (s Severity) MarshalBSONValue() (bsontype.Type, []byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(string(text))
}

// UnmarshalBSONValue decodes a severity stored by MarshalBSONValue.
func (s *Severity) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	name, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("severity must be a BSON string, got %s", t)
	}
	return s.UnmarshalText([]byte(name))
}
