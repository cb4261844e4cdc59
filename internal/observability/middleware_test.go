package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestAdminMiddlewareLogsLinkState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var out bytes.Buffer
	logger := zerolog.New(&out).Level(zerolog.DebugLevel)
	connected := false

	r := gin.New()
	r.Use(AdminMiddleware(logger, "mw-node", func() bool { return connected }))
	r.POST("/frames", func(c *gin.Context) {
		c.Set(FrameLenKey, 6)
		c.Status(http.StatusOK)
	})
	r.GET("/ready", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})

	connected = true
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/frames", nil))
	line := out.String()
	for _, want := range []string{`"level":"info"`, `"node":"mw-node"`, `"route":"/frames"`, `"link_connected":true`, `"frame_len":6`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log missing %s: %s", want, line)
		}
	}

	out.Reset()
	connected = false
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))
	if line := out.String(); !strings.Contains(line, `"level":"error"`) || !strings.Contains(line, `"link_connected":false`) {
		t.Fatalf("unexpected ready log: %s", line)
	}

	before := testutil.ToFloat64(httpRequests.WithLabelValues("mw-node", "GET", "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("mw-node", "GET", "unmatched", "404"))
	if after-before != 1 {
		t.Fatalf("unmatched route counter delta=%v", after-before)
	}
}
