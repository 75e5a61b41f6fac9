// SPDX-License-Identifier: MIT

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordProbe(t *testing.T) {
	before := testutil.ToFloat64(probesTotal.WithLabelValues("kick", OutcomeOnline))

	RecordProbe("kick", OutcomeOnline, 120*time.Millisecond)
	RecordProbe("kick", OutcomeOnline, 80*time.Millisecond)

	after := testutil.ToFloat64(probesTotal.WithLabelValues("kick", OutcomeOnline))
	assert.Equal(t, before+2, after)

	var m dto.Metric
	hist := probeDuration.WithLabelValues("kick").(prometheus.Metric)
	require.NoError(t, hist.Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(2))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleSum(), 0.19)
}

func TestIncBatch(t *testing.T) {
	before := testutil.ToFloat64(batchesTotal)
	IncBatch()
	IncBatch()
	IncBatch()
	assert.Equal(t, before+3, testutil.ToFloat64(batchesTotal))
}

func TestRecordRun(t *testing.T) {
	RecordRun(7, 3, 2*time.Second)

	assert.Equal(t, 7.0, testutil.ToFloat64(entriesByStatus.WithLabelValues(OutcomeOnline)))
	assert.Equal(t, 3.0, testutil.ToFloat64(entriesByStatus.WithLabelValues(OutcomeOffline)))
	assert.Equal(t, 2.0, testutil.ToFloat64(runDuration))
}

func TestMarkSuccess(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	MarkSuccess(ts)
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastSuccess))
}

func TestWriteTextfile(t *testing.T) {
	RecordProbe("generic", OutcomeOffline, time.Second)
	IncBatch()

	path := filepath.Join(t.TempDir(), "statuscheck.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `statuscheck_probes_total{outcome="offline",provider="generic"}`)
	assert.Contains(t, body, "statuscheck_batches_total")
	assert.False(t, strings.Contains(body, "go_goroutines"), "dedicated registry must not export runtime metrics")
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "statuscheck.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics textfile")
}
