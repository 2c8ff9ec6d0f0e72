package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/oicur0t/logl-check/internal/check"
	"github.com/oicur0t/logl-check/internal/config"
	"github.com/oicur0t/logl-check/internal/metrics"
	"github.com/oicur0t/logl-check/internal/report"
	"github.com/oicur0t/logl-check/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// flagKeys maps command line flags to their configuration keys.
var flagKeys = map[string]string{
	"file":            "files",
	"line":            "line_pattern",
	"warningpattern":  "warning_patterns",
	"criticalpattern": "critical_patterns",
	"keep":            "keep",
	"statefile":       "state_file",
	"state-format":    "state_format",
	"output":          "output",
	"metrics-file":    "metrics_file",
	"parallel":        "parallel",
	"log-level":       "log_level",
	"log-format":      "log_format",
}

// newRootCmd builds the logl-check command. The report goes to stdout and
// the status code of the run is stored in *exitCode.
func newRootCmd(stdout io.Writer, exitCode *int) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "logl-check",
		Short: "Scan log files for new warning and critical messages",
		Long: `logl-check reads the lines appended to one or more log files since the
previous run, follows rotations, groups lines into messages and reports
the worst severity found as a monitoring check result.

Exit codes: 0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = runCheck(cmd.Context(), cmd, configPath, stdout)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayP("file", "f", nil, "log file to scan, as PATH[:ROTATION_REGEX] (repeatable)")
	flags.StringP("line", "l", "", "regex matching the first line of a message")
	flags.StringArrayP("warningpattern", "w", nil, "regex classifying a message as WARNING (repeatable)")
	flags.StringArrayP("criticalpattern", "c", nil, "regex classifying a message as CRITICAL (repeatable)")
	flags.StringP("keep", "k", "0", "keep matches alerting for this long, e.g. 300, 5m, 1d (0 disables)")
	flags.StringP("statefile", "s", "", "path of the state file")
	flags.String("state-format", "", "state file format: json, yaml, bson (default: from extension)")
	flags.StringP("output", "o", report.FormatText, "report format: text, json, yaml")
	flags.String("metrics-file", "", "write Prometheus textfile metrics to this path")
	flags.Int("parallel", 1, "number of log files scanned concurrently")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console, json")
	flags.StringVar(&configPath, "config", "", "optional config file (yaml, json or toml)")

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, configPath string, stdout io.Writer) int {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return unknown(stdout, err)
	}

	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return unknown(stdout, err)
	}
	defer logger.Sync()

	logger = logger.With(zap.String("run_id", uuid.NewString()))
	logger.Debug("Starting logl-check",
		zap.Int("log_files", len(cfg.Streams)),
		zap.String("state_file", cfg.StateFile),
		zap.String("state_format", cfg.StateCodec.Name()),
		zap.Duration("keep", cfg.Retention))

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	summary, err := check.NewRunner(cfg, recorder, logger).Run(ctx)
	if err != nil {
		logger.Error("Check failed", zap.Error(err))
		return unknown(stdout, err)
	}

	if err := report.Render(stdout, *summary, cfg.Output); err != nil {
		logger.Error("Failed to write report", zap.Error(err))
		return int(models.SeverityUnknown)
	}
	return int(summary.Severity)
}

// loadConfig layers defaults, the config file, environment and the flags
// that were set explicitly, in increasing order of precedence.
func loadConfig(cmd *cobra.Command, configPath string) (*config.CheckConfig, error) {
	v := viper.New()
	config.SetDefaults(v)

	var setErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || setErr != nil {
			return
		}
		val, err := flagValue(cmd, f.Name)
		if err != nil {
			setErr = err
			return
		}
		v.Set(key, val)
	})
	if setErr != nil {
		return nil, &config.Error{Field: "flags", Err: setErr}
	}

	return config.LoadCheckConfig(v, configPath)
}

// flagValue reads a flag with its own type. Repeatable patterns are taken
// as given so commas inside a regex are not split.
func flagValue(cmd *cobra.Command, name string) (interface{}, error) {
	flags := cmd.Flags()
	switch name {
	case "file", "warningpattern", "criticalpattern":
		return flags.GetStringArray(name)
	case "parallel":
		return flags.GetInt(name)
	default:
		return flags.GetString(name)
	}
}

func unknown(w io.Writer, err error) int {
	fmt.Fprint(w, report.Unknown(err))
	return int(models.SeverityUnknown)
}
