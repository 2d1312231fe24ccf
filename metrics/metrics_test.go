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

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.RecordAttempt("markup")
	c.RecordAttempt("markup")
	c.RecordRetry("markup")
	c.RecordChunk("markup", OutcomeFlagged, 150*time.Millisecond)
	c.RecordChunk("markup", OutcomeFailed, time.Second)
	c.RecordDocument(DocumentPersisted)
	c.RecordDocument(DocumentTooShort)
	c.SetInFlight("requests", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Attempts.WithLabelValues("markup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Retries.WithLabelValues("markup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Chunks.WithLabelValues("markup", OutcomeFlagged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Chunks.WithLabelValues("markup", OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Chunks.WithLabelValues("markup", OutcomeNegative)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Documents.WithLabelValues(DocumentPersisted)))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.InFlight.WithLabelValues("requests")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordAttempt("markup")
		c.RecordRetry("markup")
		c.RecordChunk("markup", OutcomeFlagged, time.Second)
		c.RecordDocument(DocumentPersisted)
		c.SetInFlight("writes", 1)
	})
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordDocument(DocumentPersisted)

	path := filepath.Join(t.TempDir(), "patentmark.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `patentmark_documents_total{outcome="persisted"} 1`)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	a.RecordAttempt("markup")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Attempts.WithLabelValues("markup")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Attempts.WithLabelValues("markup")))
}
