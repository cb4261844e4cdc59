package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FrameLenKey is the gin context key a handler sets to the wire length of
// the frame it sent, so the request log can report it.
const FrameLenKey = "uartlink.frame_len"

// AdminMiddleware times each admin request, records it under node, and logs
// it with the link state at completion. connected may be nil.
func AdminMiddleware(logger zerolog.Logger, node string, connected func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(node, c.Request.Method, route, status, elapsed)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case c.Request.Method == "POST":
			event = logger.Info()
		default:
			event = logger.Debug()
		}
		event = event.
			Str("node", node).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed)
		if connected != nil {
			event = event.Bool("link_connected", connected())
		}
		if n := c.GetInt(FrameLenKey); n > 0 {
			event = event.Int("frame_len", n)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("admin request")
	}
}
