package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(sourceFailures.WithLabelValues("feedback"))
	RecordSourceFailure("feedback")
	assert.Equal(t, before+1, testutil.ToFloat64(sourceFailures.WithLabelValues("feedback")))

	before = testutil.ToFloat64(aggregations.WithLabelValues("hit"))
	RecordAggregation(true)
	assert.Equal(t, before+1, testutil.ToFloat64(aggregations.WithLabelValues("hit")))

	before = testutil.ToFloat64(peersSkipped)
	RecordPeerSkipped()
	assert.Equal(t, before+1, testutil.ToFloat64(peersSkipped))

	before = testutil.ToFloat64(comparisons.WithLabelValues("RM", "matched"))
	RecordComparison("RM", "matched")
	assert.Equal(t, before+1, testutil.ToFloat64(comparisons.WithLabelValues("RM", "matched")))
}
