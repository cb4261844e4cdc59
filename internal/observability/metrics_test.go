package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("link-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordLinkBytes("link-a", "rx", 6)
	RecordLinkPacket("link-a", "rx", "velocity")
	RecordLinkText("link-a")
	RecordLinkReopen("link-a", false)

	before := testutil.ToFloat64(linkDiagnostics.WithLabelValues("link-a", "checksum_mismatch"))
	RecordLinkDiagnostic("link-a", "checksum_mismatch")
	after := testutil.ToFloat64(linkDiagnostics.WithLabelValues("link-a", "checksum_mismatch"))
	if after-before != 1 {
		t.Fatalf("diagnostic counter delta=%v", after-before)
	}
	if got := testutil.ToFloat64(linkBytes.WithLabelValues("link-a", "rx")); got < 6 {
		t.Fatalf("rx bytes=%v", got)
	}

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}
