package importer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/loader"
	"github.com/omfgitsmark/mtgsqlive/internal/mapper"
	"github.com/omfgitsmark/mtgsqlive/internal/metrics"
	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

// ErrPartialLoad is returned by Summary.Err when some records were rejected
// or failed to load.
var ErrPartialLoad = errors.New("import finished with errors")

type Options struct {
	Input     string
	Strict    bool
	BatchSize int
}

// Summary describes a finished run.
type Summary struct {
	Sets   int
	Cards  int
	Tokens int

	// Rejected counts records that never reached the database: decode
	// failures, invalid records and, in strict mode, unknown fields.
	Rejected      int
	Loaded        int
	Failed        int
	Batches       int
	FailedBatches int

	// Errors holds every recoverable error of the run in the order seen.
	Errors []error
}

// Err returns nil when every record was loaded.
func (s *Summary) Err() error {
	if s.Rejected == 0 && s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d rejected, %d failed in %d batches", ErrPartialLoad, s.Rejected, s.Failed, s.FailedBatches)
}

func (s *Summary) reject(kind mtgjson.Kind, err error, c *metrics.Collector) {
	s.Rejected++
	s.Errors = append(s.Errors, err)
	c.Record(string(kind), metrics.OutcomeRejected)
	slog.Warn("Rejected record", "kind", kind, "error", err)
}

// Run imports the export at opts.Input into db. Schema conflicts, input
// that cannot be read and lost connections abort the run; anything else is
// counted in the Summary and the run goes on.
func Run(ctx context.Context, db *gorm.DB, opts Options, c *metrics.Collector) (*Summary, error) {
	start := time.Now()
	slog.Info("Importing", "input", opts.Input, "strict", opts.Strict, "batchSize", opts.BatchSize)

	// 1. Schema
	s, err := schema.Define(data.Models()...)
	if err != nil {
		return nil, err
	}
	m, err := mapper.New(s, opts.Strict)
	if err != nil {
		return nil, err
	}
	l := loader.New(db, s, loader.WithBatchSize(opts.BatchSize), loader.WithMetrics(c))
	if err := l.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	// 2. Input
	src, err := mtgjson.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	// 3. Map and load
	summary := &Summary{}
	var readErr error
	report, loadErr := l.Load(ctx, mapped(src, m, summary, c, &readErr))

	if report != nil {
		summary.Loaded = report.Loaded
		summary.Failed = report.Failed
		summary.Batches = report.Batches
		summary.FailedBatches = report.FailedBatches
		for _, e := range report.Errors {
			summary.Errors = append(summary.Errors, e)
		}
	}
	c.Finish(start)

	if loadErr != nil {
		return summary, loadErr
	}
	if readErr != nil {
		return summary, fmt.Errorf("failed to read input: %w", readErr)
	}

	slog.Info("Import complete",
		"sets", summary.Sets,
		"cards", summary.Cards,
		"tokens", summary.Tokens,
		"loaded", summary.Loaded,
		"rejected", summary.Rejected,
		"failed", summary.Failed,
		"failedBatches", summary.FailedBatches,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return summary, nil
}

// mapped streams the mapped records of src. Rejected records are counted in
// summary. A set that cannot be read stops the stream and is stored in
// readErr.
func mapped(src *mtgjson.Source, m *mapper.Mapper, summary *Summary, c *metrics.Collector, readErr *error) iter.Seq[mapper.Record] {
	return func(yield func(mapper.Record) bool) {
		for set, err := range src.Sets() {
			if err != nil {
				*readErr = err
				return
			}
			slog.Debug("Mapping set", "set", set.Code)
			for rec, err := range set.Records() {
				if err != nil {
					var decodeErr *mtgjson.DecodeError
					kind := mtgjson.Kind("unknown")
					if errors.As(err, &decodeErr) {
						kind = decodeErr.Kind
					}
					summary.reject(kind, err, c)
					continue
				}

				out, err := m.Map(rec)
				if err != nil {
					summary.reject(rec.Kind(), err, c)
					continue
				}
				switch rec.Kind() {
				case mtgjson.KindSet:
					summary.Sets++
				case mtgjson.KindCard:
					summary.Cards++
				case mtgjson.KindToken:
					summary.Tokens++
				}
				if !yield(out) {
					return
				}
			}
		}
	}
}
