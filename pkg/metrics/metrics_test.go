package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBackendAttempt(t *testing.T) {
	before := testutil.ToFloat64(IndexBackendAttempts.WithLabelValues("cpu", "failure"))
	RecordBackendAttempt("cpu", errors.New("boom"))
	RecordBackendAttempt("cpu", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(IndexBackendAttempts.WithLabelValues("cpu", "failure")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(IndexBackendAttempts.WithLabelValues("cpu", "success")), 1.0)
}

func TestRecordRecommend(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("not_found"))
	RecordRecommend("not_found")
	assert.Equal(t, before+1, testutil.ToFloat64(RecommendRequests.WithLabelValues("not_found")))
}

func TestWriteTextfile(t *testing.T) {
	RecordBuildPhase("train", 150*time.Millisecond)
	RecordSearch("ivf-flat-cpu", time.Millisecond)
	IndexRows.Set(42)

	path := filepath.Join(t.TempDir(), "simrec.prom")
	require.NoError(t, WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "simrec_index_rows 42")
	assert.Contains(t, string(data), `simrec_build_phase_duration_seconds_count{phase="train"}`)
	assert.Contains(t, string(data), `simrec_search_duration_seconds_bucket{backend="ivf-flat-cpu"`)
}
