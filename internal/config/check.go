package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oicur0t/logl-check/internal/report"
	"github.com/oicur0t/logl-check/internal/scanner"
	"github.com/oicur0t/logl-check/internal/state"
	"github.com/oicur0t/logl-check/pkg/models"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment variables read by viper.
const EnvPrefix = "LOGL_CHECK"

// Error is a configuration problem found before any file is touched.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CheckConfig represents the complete check configuration
type CheckConfig struct {
	Files            []string `mapstructure:"files"`
	LinePattern      string   `mapstructure:"line_pattern"`
	WarningPatterns  []string `mapstructure:"warning_patterns"`
	CriticalPatterns []string `mapstructure:"critical_patterns"`
	Keep             string   `mapstructure:"keep"`
	StateFile        string   `mapstructure:"state_file"`
	StateFormat      string   `mapstructure:"state_format"`
	Output           string   `mapstructure:"output"`
	MetricsFile      string   `mapstructure:"metrics_file"`
	Parallel         int      `mapstructure:"parallel"`
	LogLevel         string   `mapstructure:"log_level"`
	LogFormat        string   `mapstructure:"log_format"`

	// Derived by LoadCheckConfig.
	Streams    []scanner.Stream  `mapstructure:"-"`
	Boundary   *regexp.Regexp    `mapstructure:"-"`
	Patterns   []scanner.Pattern `mapstructure:"-"`
	Retention  time.Duration     `mapstructure:"-"`
	StateCodec state.Codec       `mapstructure:"-"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("files", []string{})
	v.SetDefault("line_pattern", "")
	v.SetDefault("warning_patterns", []string{})
	v.SetDefault("critical_patterns", []string{})
	v.SetDefault("keep", "0")
	v.SetDefault("state_file", filepath.Join(os.TempDir(), "logl-check-state.json"))
	v.SetDefault("state_format", "")
	v.SetDefault("output", report.FormatText)
	v.SetDefault("metrics_file", "")
	v.SetDefault("parallel", 1)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
}

// LoadCheckConfig reads the optional config file into v, then decodes and
// validates the result. Every regular expression is compiled here so a bad
// pattern fails the run before scanning starts.
func LoadCheckConfig(v *viper.Viper, configPath string) (*CheckConfig, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Field: "config file", Err: err}
		}
	}

	var cfg CheckConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Field: "config", Err: err}
	}

	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *CheckConfig) compile() error {
	if len(c.Files) == 0 {
		return &Error{Field: "files", Err: fmt.Errorf("at least one log file must be configured")}
	}

	seen := make(map[string]bool, len(c.Files))
	c.Streams = c.Streams[:0]
	for _, entry := range c.Files {
		stream, err := ParseStream(entry)
		if err != nil {
			return err
		}
		if seen[stream.Path] {
			return &Error{Field: "file", Err: fmt.Errorf("%s is configured more than once", stream.Path)}
		}
		seen[stream.Path] = true
		c.Streams = append(c.Streams, stream)
	}

	if c.LinePattern != "" {
		re, err := regexp.Compile(c.LinePattern)
		if err != nil {
			return &Error{Field: "line pattern", Err: err}
		}
		c.Boundary = re
	}

	c.Patterns = c.Patterns[:0]
	for _, group := range []struct {
		severity models.Severity
		sources  []string
	}{
		{models.SeverityWarning, c.WarningPatterns},
		{models.SeverityCritical, c.CriticalPatterns},
	} {
		for _, src := range group.sources {
			re, err := regexp.Compile(src)
			if err != nil {
				return &Error{Field: strings.ToLower(group.severity.String()) + " pattern", Err: err}
			}
			c.Patterns = append(c.Patterns, scanner.Pattern{Severity: group.severity, Regexp: re})
		}
	}

	retention, err := ParseRetention(c.Keep)
	if err != nil {
		return &Error{Field: "keep", Err: err}
	}
	c.Retention = retention

	if c.StateFile == "" {
		return &Error{Field: "state file", Err: fmt.Errorf("path is empty")}
	}
	codec, err := state.CodecFor(c.StateFormat, c.StateFile)
	if err != nil {
		return &Error{Field: "state format", Err: err}
	}
	c.StateCodec = codec

	switch c.Output {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return &Error{Field: "output", Err: fmt.Errorf("unsupported format %q", c.Output)}
	}

	if c.Parallel < 1 {
		return &Error{Field: "parallel", Err: fmt.Errorf("must be at least 1, got %d", c.Parallel)}
	}
	return nil
}

// ParseStream parses "PATH[:ROTATION_REGEX]". The first colon separates the
// path from the pattern matching rotated file names in the same directory.
func ParseStream(entry string) (scanner.Stream, error) {
	path, pattern, hasPattern := strings.Cut(entry, ":")
	if path == "" {
		return scanner.Stream{}, &Error{Field: "file", Err: fmt.Errorf("empty path in %q", entry)}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return scanner.Stream{}, &Error{Field: "file", Err: err}
	}
	stream := scanner.Stream{Path: abs}

	if hasPattern && pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return scanner.Stream{}, &Error{Field: "rotation pattern", Err: err}
		}
		stream.Rotated = re
	}
	return stream, nil
}

var retentionUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseRetention parses an integer with an optional s, m, h or d suffix.
// A bare number is seconds; zero (or empty) disables retention.
func ParseRetention(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	unit := time.Second
	if u, ok := retentionUnits[s[len(s)-1]]; ok {
		unit = u
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return time.Duration(n) * unit, nil
}
