package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oicur0t/logl-check/internal/report"
	"github.com/oicur0t/logl-check/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	exitCode := int(models.SeverityOK)
	cmd := newRootCmd(os.Stdout, &exitCode)
	if err := cmd.ExecuteContext(ctx); err != nil {
		// Flag parsing errors end up here.
		fmt.Fprint(os.Stdout, report.Unknown(err))
		exitCode = int(models.SeverityUnknown)
	}

	stop()
	os.Exit(exitCode)
}

// initLogger creates a configured zap logger. Both configs write to
// stderr, leaving stdout to the report.
func initLogger(level string, format string) (*zap.Logger, error) {
	loggerConfig, err := newLoggerConfig(level, format)
	if err != nil {
		return nil, err
	}
	return loggerConfig.Build()
}

// newLoggerConfig picks the zap config for format. Failed runs are
// ordinary check results, so error logs carry no stack trace.
func newLoggerConfig(level string, format string) (zap.Config, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return zap.Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	var loggerConfig zap.Config
	if format == "json" {
		loggerConfig = zap.NewProductionConfig()
	} else {
		loggerConfig = zap.NewDevelopmentConfig()
	}

	loggerConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	loggerConfig.DisableStacktrace = true

	return loggerConfig, nil
}
