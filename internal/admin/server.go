// Package admin serves the HTTP control surface of a running link.
package admin

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/uartlink/internal/link"
	"github.com/danmuck/uartlink/internal/observability"
	"github.com/danmuck/uartlink/internal/protocol"
	"github.com/danmuck/uartlink/internal/protocol/frame"
	"github.com/danmuck/uartlink/internal/protocol/message"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Port is the link surface the admin routes drive.
type Port interface {
	Send(payload []byte) error
	Stats() frame.Stats
	Connected() bool
}

type Server struct {
	Node     string
	Addr     string
	Appeared time.Time

	port   Port
	router *gin.Engine
}

func New(node, addr string, corsOrigins []string, port Port) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(log.Logger, node, port.Connected))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		Node:     node,
		Addr:     addr,
		Appeared: time.Now(),
		port:     port,
		router:   r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

type velocityRequest struct {
	LeftRPM  *int16 `json:"left_rpm"`
	RightRPM *int16 `json:"right_rpm"`
}

type payloadRequest struct {
	PayloadHex string `json:"payload_hex"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Node,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.port.Connected()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Node,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   s.Node,
			"connected": s.port.Connected(),
			"decoder":   s.port.Stats(),
		})
	})

	s.router.POST("/velocity", func(c *gin.Context) {
		var req velocityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.LeftRPM == nil || req.RightRPM == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "left_rpm and right_rpm are required"})
			return
		}
		cmd := message.Velocity{LeftRPM: *req.LeftRPM, RightRPM: *req.RightRPM}
		payload, err := message.Marshal(cmd)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.send(c, payload)
	})

	s.router.POST("/frames", func(c *gin.Context) {
		var req payloadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payload, err := hex.DecodeString(strings.TrimSpace(req.PayloadHex))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload_hex: " + err.Error()})
			return
		}
		s.send(c, payload)
	})
}

func (s *Server) send(c *gin.Context, payload []byte) {
	if err := s.port.Send(payload); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, link.ErrNotConnected):
			status = http.StatusServiceUnavailable
		case errors.Is(err, protocol.ErrEmptyPayload), errors.Is(err, protocol.ErrPayloadTooLarge):
			status = http.StatusBadRequest
		}
		log.Error().Str("node", s.Node).Err(err).Msg("admin send failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	wire := frame.Assemble(payload)
	c.Set(observability.FrameLenKey, len(wire))
	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
		"len":    len(payload),
		"frame":  hex.EncodeToString(wire),
	})
}

// Serve runs the HTTP server until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("node", s.Node).Str("addr", s.Addr).Msg("admin listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
