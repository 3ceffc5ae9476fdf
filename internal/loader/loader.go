package loader

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omfgitsmark/mtgsqlive/internal/mapper"
	"github.com/omfgitsmark/mtgsqlive/internal/metrics"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

// DefaultBatchSize is the number of records written per transaction.
const DefaultBatchSize = 500

// BatchWriteError reports a batch that was rolled back. The records it
// held were not written; the run goes on with the next batch.
type BatchWriteError struct {
	Batch int
	Refs  []string
	Err   error
}

func (e *BatchWriteError) Error() string {
	return fmt.Sprintf("batch %d (%d records) rolled back: %v", e.Batch, len(e.Refs), e.Err)
}

func (e *BatchWriteError) Unwrap() error { return e.Err }

// Report summarizes a Load call.
type Report struct {
	Records       int
	Loaded        int
	Failed        int
	Batches       int
	FailedBatches int
	Errors        []*BatchWriteError
}

// Loader writes mapped records into the database.
type Loader struct {
	db        *gorm.DB
	schema    *schema.Schema
	batchSize int
	metrics   *metrics.Collector
}

type Option func(*Loader)

// WithBatchSize sets the number of records per transaction. Values below
// one are ignored.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(l *Loader) { l.metrics = c }
}

func New(db *gorm.DB, s *schema.Schema, opts ...Option) *Loader {
	l := &Loader{db: db, schema: s, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnsureSchema checks the columns of existing tables against the schema and
// then creates whatever tables and columns are missing. An incompatible
// existing column fails with *schema.ConflictError before anything is
// changed.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	db := l.db.WithContext(ctx)
	m := db.Migrator()

	for _, t := range l.schema.Tables {
		if !m.HasTable(t.Name) {
			continue
		}
		columnTypes, err := m.ColumnTypes(t.Name)
		if err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", t.Name, err)
		}
		for _, ct := range columnTypes {
			col, ok := t.Column(ct.Name())
			if !ok {
				continue
			}
			if dbType := ct.DatabaseTypeName(); !col.Accepts(dbType) {
				return &schema.ConflictError{Table: t.Name, Column: col.Name, Want: col.Type, Have: dbType}
			}
		}
	}

	if err := db.AutoMigrate(l.schema.Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	slog.Info("Schema ready", "tables", len(l.schema.Tables))
	return nil
}

// Load writes records in batches, one transaction per batch, replacing any
// existing rows with the same keys. A batch that fails is rolled back and
// reported in the Report; earlier and later batches are unaffected. Losing
// the connection or cancelling ctx stops the load with an error.
func (l *Loader) Load(ctx context.Context, records iter.Seq[mapper.Record]) (*Report, error) {
	report := &Report{}
	batch := make([]mapper.Record, 0, l.batchSize)

	for rec := range records {
		report.Records++
		batch = append(batch, rec)
		if len(batch) < l.batchSize {
			continue
		}
		if err := l.flush(ctx, batch, report); err != nil {
			return report, err
		}
		batch = batch[:0]
	}
	if len(batch) > 0 {
		if err := l.flush(ctx, batch, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (l *Loader) flush(ctx context.Context, batch []mapper.Record, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.Batches++
	n := report.Batches

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range batch {
			if err := l.write(tx, rec); err != nil {
				return fmt.Errorf("%s %s: %w", rec.Kind, rec.Ref, err)
			}
		}
		return nil
	})
	if err == nil {
		report.Loaded += len(batch)
		l.metrics.Batch(metrics.BatchCommitted)
		for _, rec := range batch {
			l.metrics.Record(string(rec.Kind), metrics.OutcomeLoaded)
		}
		slog.Debug("Committed batch", "batch", n, "records", len(batch))
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if isConnectionLoss(err) {
		return &ConnectionError{Category: CategoryNetwork, Err: fmt.Errorf("batch %d: %w", n, err)}
	}

	batchErr := &BatchWriteError{Batch: n, Err: err}
	for _, rec := range batch {
		batchErr.Refs = append(batchErr.Refs, rec.Ref)
		l.metrics.Record(string(rec.Kind), metrics.OutcomeFailed)
	}
	report.Failed += len(batch)
	report.FailedBatches++
	report.Errors = append(report.Errors, batchErr)
	l.metrics.Batch(metrics.BatchFailed)
	slog.Error("Batch rolled back", "batch", n, "records", len(batch), "error", err)
	return nil
}

// write upserts the rows of one record. A parent row first drops the rows of
// its lists so that a shorter list replaces a longer one.
func (l *Loader) write(tx *gorm.DB, rec mapper.Record) error {
	for row := range rec.Rows {
		for _, list := range l.schema.Lists(row.Table.Name) {
			err := tx.Where(clause.Eq{Column: clause.Column{Name: list.OwnerColumn}, Value: row.Key}).
				Delete(list.NewModel()).Error
			if err != nil {
				return fmt.Errorf("clear %s: %w", list.Name, err)
			}
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row.Value).Error; err != nil {
			return fmt.Errorf("upsert %s: %w", row.Table.Name, err)
		}
	}
	return nil
}
