package check

import (
	"context"
	"time"

	"github.com/oicur0t/logl-check/internal/config"
	"github.com/oicur0t/logl-check/internal/metrics"
	"github.com/oicur0t/logl-check/internal/report"
	"github.com/oicur0t/logl-check/internal/scanner"
	"github.com/oicur0t/logl-check/internal/state"
	"github.com/oicur0t/logl-check/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner performs one check run over all configured streams.
type Runner struct {
	cfg     *config.CheckConfig
	scanner *scanner.Scanner
	metrics *metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner creates a Runner for cfg. metrics may be nil.
func NewRunner(cfg *config.CheckConfig, recorder *metrics.Recorder, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		scanner: scanner.New(cfg.Boundary, cfg.Patterns, logger),
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Run holds the state lock while it loads the state, scans every stream
// and saves the updated state, then aggregates the verdict. Any error
// aborts the run before the state is saved.
func (r *Runner) Run(ctx context.Context) (*report.Summary, error) {
	started := r.now()

	var (
		results []models.Match
		carried []models.KeptAlert
	)
	err := state.WithLock(ctx, r.cfg.StateFile, r.cfg.StateCodec, r.logger, func(store *state.Store) error {
		doc, err := store.Load()
		if err != nil {
			return err
		}

		results, err = r.scanAll(ctx, doc)
		if err != nil {
			return err
		}

		for _, res := range results {
			carried = append(carried, doc.Record(res, started, r.cfg.Retention)...)
		}

		return store.Save(doc)
	})
	if err != nil {
		r.observeFailure()
		return nil, err
	}

	summary := report.Aggregate(results, carried, r.cfg.Retention > 0)

	r.logger.Info("Check finished",
		zap.String("status", summary.Severity.String()),
		zap.Int("files", summary.Files),
		zap.Int64("lines", summary.Lines),
		zap.Int("warnings", summary.Warnings),
		zap.Int("criticals", summary.Criticals),
		zap.Duration("duration", r.now().Sub(started)))

	if r.metrics != nil {
		r.metrics.Observe(summary, r.now())
		r.writeMetrics()
	}
	return &summary, nil
}

// scanAll resolves and scans every stream, at most cfg.Parallel at a time.
// Results keep the configured stream order.
func (r *Runner) scanAll(ctx context.Context, doc *state.Document) ([]models.Match, error) {
	results := make([]models.Match, len(r.cfg.Streams))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallel)

	for i, stream := range r.cfg.Streams {
		i, stream := i, stream
		prior := doc.Lookup(stream.Path)

		g.Go(func() error {
			plan, err := scanner.Resolve(stream, prior)
			if err != nil {
				return err
			}

			r.logger.Debug("Resolved stream",
				zap.String("stream", stream.Path),
				zap.Int("files", len(plan.Files)),
				zap.Int64("resume_line", plan.ResumeLine))

			res, err := r.scanner.Scan(ctx, stream, plan)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) observeFailure() {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveFailure(r.now())
	r.writeMetrics()
}

func (r *Runner) writeMetrics() {
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := r.metrics.WriteFile(r.cfg.MetricsFile); err != nil {
		r.logger.Warn("Failed to write metrics file",
			zap.String("metrics_file", r.cfg.MetricsFile),
			zap.Error(err))
	}
}
