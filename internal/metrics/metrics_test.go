package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := New()
	c.Record("card", OutcomeLoaded)
	c.Record("card", OutcomeLoaded)
	c.Record("token", OutcomeRejected)
	c.Batch(BatchCommitted)
	c.Batch(BatchFailed)
	c.Finish(time.Now().Add(-2 * time.Second))

	assert.InDelta(t, 2, testutil.ToFloat64(c.records.WithLabelValues("card", OutcomeLoaded)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.records.WithLabelValues("token", OutcomeRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.batches.WithLabelValues(BatchFailed)), 0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(c.duration), 2.0)
	assert.Equal(t, 2, testutil.CollectAndCount(c.records))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Record("card", OutcomeLoaded)
		c.Batch(BatchCommitted)
		c.Finish(time.Now())
	})
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.Record("set", OutcomeLoaded)

	path := filepath.Join(t.TempDir(), "mtgsqlive.prom")
	require.NoError(t, c.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `mtgsqlive_records_total{kind="set",outcome="loaded"} 1`)
	assert.Contains(t, string(content), "go_goroutines")
}
