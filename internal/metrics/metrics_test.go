package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDispatch(t *testing.T) {
	before := testutil.ToFloat64(dispatchTotal.WithLabelValues("INSTAGRAM", "started"))
	ObserveDispatch("INSTAGRAM", "started")
	if got := testutil.ToFloat64(dispatchTotal.WithLabelValues("INSTAGRAM", "started")); got != before+1 {
		t.Errorf("expected dispatch counter %f, got %f", before+1, got)
	}
}

func TestObserveRecordsIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(recordsTotal.WithLabelValues(RecordTruncated))
	ObserveRecords(RecordTruncated, 0)
	ObserveRecords(RecordTruncated, -3)
	if got := testutil.ToFloat64(recordsTotal.WithLabelValues(RecordTruncated)); got != before {
		t.Errorf("expected counter unchanged at %f, got %f", before, got)
	}
	ObserveRecords(RecordTruncated, 5)
	if got := testutil.ToFloat64(recordsTotal.WithLabelValues(RecordTruncated)); got != before+5 {
		t.Errorf("expected counter %f, got %f", before+5, got)
	}
}

func TestObserveWebhookAndUpsert(t *testing.T) {
	beforeWebhook := testutil.ToFloat64(webhookEventsTotal.WithLabelValues("ignored"))
	beforeUpsert := testutil.ToFloat64(upsertsTotal.WithLabelValues(UpsertFailed))

	ObserveWebhook("ignored")
	ObserveUpsert(UpsertFailed)

	if got := testutil.ToFloat64(webhookEventsTotal.WithLabelValues("ignored")); got != beforeWebhook+1 {
		t.Errorf("expected webhook counter %f, got %f", beforeWebhook+1, got)
	}
	if got := testutil.ToFloat64(upsertsTotal.WithLabelValues(UpsertFailed)); got != beforeUpsert+1 {
		t.Errorf("expected upsert counter %f, got %f", beforeUpsert+1, got)
	}
}
