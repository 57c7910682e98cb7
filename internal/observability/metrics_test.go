package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	RecordDBQuery("postgres", "query_ok", 0.02, nil)
	RecordDBQuery("postgres", "query_fail", 0.05, errors.New("boom"))

	if got := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "query_fail")); got != 1 {
		t.Errorf("DBQueryErrors{query_fail} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "query_ok")); got != 0 {
		t.Errorf("DBQueryErrors{query_ok} = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(DefaultMetrics.DBQueryDuration); got == 0 {
		t.Error("DBQueryDuration recorded no samples")
	}
}

func TestRecordFetchCall(t *testing.T) {
	RecordFetchCall("gamma", 0.1)

	if got := testutil.CollectAndCount(DefaultMetrics.FetchCallLatency); got == 0 {
		t.Error("FetchCallLatency recorded no samples")
	}
}
