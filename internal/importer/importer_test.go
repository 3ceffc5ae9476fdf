package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/mapper"
	"github.com/omfgitsmark/mtgsqlive/internal/metrics"
	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

const allSets = `{
  "M10": {
    "code": "M10",
    "name": "Magic 2010",
    "meta": {"version": "4.6.0"},
    "cards": [
      {"uuid": "00000000-0000-0000-0000-000000000001", "name": "Shivan Dragon", "number": "156",
       "rulings": [{"date": "2009-07-01", "text": "..."}]},
      {"uuid": 42},
      {"uuid": "00000000-0000-0000-0000-000000000002", "name": "Llanowar Elves", "frameEffects": ["legendary"]},
      {"setCode": "M10"}
    ],
    "tokens": [
      {"name": "Wolf", "types": ["Creature"]}
    ]
  },
  "ZEN": {
    "name": "Zendikar",
    "cards": [{"name": "Forest", "number": "246"}]
  }
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open DB: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Logf("Failed to close DB: %v", err)
		}
	})
	return db
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "AllSets.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	return path
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRunLenient(t *testing.T) {
	db := newTestDB(t)
	c := metrics.New()

	summary, err := Run(context.Background(), db, Options{Input: writeInput(t, allSets), BatchSize: 2}, c)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Sets)
	assert.Equal(t, 3, summary.Cards, "the unknown field only warns")
	assert.Equal(t, 1, summary.Tokens)
	assert.Equal(t, 2, summary.Rejected, "bad uuid type and missing name")
	assert.Equal(t, 6, summary.Loaded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 3, summary.Batches)
	assert.ErrorIs(t, summary.Err(), ErrPartialLoad)

	var decodeErr *mtgjson.DecodeError
	require.Len(t, summary.Errors, 2)
	assert.True(t, errors.As(summary.Errors[0], &decodeErr))
	assert.ErrorIs(t, summary.Errors[1], mapper.ErrInvalidRecord)

	assert.EqualValues(t, 2, count(t, db, &data.Set{}))
	assert.EqualValues(t, 3, count(t, db, &data.Card{}))
	assert.EqualValues(t, 1, count(t, db, &data.Token{}))
	assert.EqualValues(t, 1, count(t, db, &data.CardRuling{}))

	var forest data.Card
	require.NoError(t, db.First(&forest, "name = ?", "Forest").Error)
	assert.Equal(t, "ZEN", forest.SetCode)

	assert.InDelta(t, 2, metricValue(t, c, "card", metrics.OutcomeRejected), 0)
	assert.InDelta(t, 3, metricValue(t, c, "card", metrics.OutcomeLoaded), 0)
}

func metricValue(t *testing.T, c *metrics.Collector, kind, outcome string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "mtgsqlive_records_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["kind"] == kind && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRunStrict(t *testing.T) {
	db := newTestDB(t)

	summary, err := Run(context.Background(), db, Options{Input: writeInput(t, allSets), Strict: true, BatchSize: 500}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Cards)
	assert.Equal(t, 3, summary.Rejected)

	var unknown *mapper.UnknownFieldError
	found := false
	for _, e := range summary.Errors {
		if errors.As(e, &unknown) {
			found = true
			assert.Equal(t, []string{"frameEffects"}, unknown.Fields)
		}
	}
	assert.True(t, found)

	assert.EqualValues(t, 2, count(t, db, &data.Card{}))
	err = db.First(&data.Card{}, "uuid = ?", "00000000-0000-0000-0000-000000000002").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunIdempotent(t *testing.T) {
	db := newTestDB(t)
	input := writeInput(t, allSets)

	for range 2 {
		_, err := Run(context.Background(), db, Options{Input: input, BatchSize: 500}, nil)
		require.NoError(t, err)
	}

	assert.EqualValues(t, 2, count(t, db, &data.Set{}))
	assert.EqualValues(t, 3, count(t, db, &data.Card{}))
	assert.EqualValues(t, 1, count(t, db, &data.Token{}))
	assert.EqualValues(t, 1, count(t, db, &data.CardRuling{}))
	assert.EqualValues(t, 1, count(t, db, &data.TokenListValue{}))
}

func TestRunClean(t *testing.T) {
	db := newTestDB(t)
	input := writeInput(t, `{"M10": {"code": "M10", "cards": [{"name": "Shivan Dragon", "number": "156"}]}}`)

	summary, err := Run(context.Background(), db, Options{Input: input, BatchSize: 500}, nil)
	require.NoError(t, err)
	assert.NoError(t, summary.Err())
	assert.Equal(t, 2, summary.Loaded)
}

func TestRunSchemaConflict(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec("CREATE TABLE sets (code TEXT PRIMARY KEY, total_set_size TEXT)").Error)

	_, err := Run(context.Background(), db, Options{Input: writeInput(t, allSets), BatchSize: 500}, nil)

	var conflict *schema.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, "total_set_size", conflict.Column)
	assert.Zero(t, count(t, db, &data.Set{}), "no rows are written")
}

func TestRunMissingInput(t *testing.T) {
	db := newTestDB(t)

	_, err := Run(context.Background(), db, Options{Input: filepath.Join(t.TempDir(), "missing.json"), BatchSize: 500}, nil)
	assert.ErrorContains(t, err, "failed to open input")
}

func TestRunMalformedInput(t *testing.T) {
	db := newTestDB(t)

	summary, err := Run(context.Background(), db, Options{Input: writeInput(t, `[]`), BatchSize: 500}, nil)
	assert.ErrorContains(t, err, "failed to read input")
	require.NotNil(t, summary)
	assert.Zero(t, summary.Loaded)
}
