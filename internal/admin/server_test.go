package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/uartlink/internal/link"
	"github.com/danmuck/uartlink/internal/protocol"
	"github.com/danmuck/uartlink/internal/protocol/frame"
	"github.com/danmuck/uartlink/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

type stubPort struct {
	connected bool
	sent      [][]byte
	stats     frame.Stats
}

func (p *stubPort) Send(payload []byte) error {
	if !p.connected {
		return link.ErrNotConnected
	}
	if len(payload) == 0 {
		return protocol.ErrEmptyPayload
	}
	p.sent = append(p.sent, payload)
	return nil
}

func (p *stubPort) Stats() frame.Stats { return p.stats }
func (p *stubPort) Connected() bool    { return p.connected }

func newTestServer(port *stubPort) *Server {
	s := New("link-a", ":0", nil, port)
	s.RegisterRoutes()
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestReadyReflectsConnection(t *testing.T) {
	testlog.Start(t)
	port := &stubPort{}
	s := newTestServer(port)
	if rr := do(s, http.MethodGet, "/ready", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while disconnected, got %d", rr.Code)
	}
	port.connected = true
	if rr := do(s, http.MethodGet, "/ready", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 while connected, got %d", rr.Code)
	}
	if rr := do(s, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", rr.Code)
	}
}

func TestVelocitySendsMarshalledCommand(t *testing.T) {
	testlog.Start(t)
	port := &stubPort{connected: true}
	s := newTestServer(port)

	rr := do(s, http.MethodPost, "/velocity", `{"left_rpm":300,"right_rpm":-2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(port.sent) != 1 || !bytes.Equal(port.sent[0], []byte{0x01, 0x2C, 0x01, 0xFE, 0xFF}) {
		t.Fatalf("unexpected sent payloads: %x", port.sent)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "sent" {
		t.Fatalf("unexpected response body: %#v", body)
	}
	log.Info().Int("status", rr.Code).Msg("admin/http: POST /velocity")

	if rr := do(s, http.MethodPost, "/velocity", `{"left_rpm":1}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing field, got %d", rr.Code)
	}
}

func TestFramesRoute(t *testing.T) {
	testlog.Start(t)
	port := &stubPort{connected: true}
	s := newTestServer(port)

	if rr := do(s, http.MethodPost, "/frames", `{"payload_hex":"aa10"}`); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(port.sent) != 1 || !bytes.Equal(port.sent[0], []byte{0xAA, 0x10}) {
		t.Fatalf("unexpected sent payloads: %x", port.sent)
	}
	if rr := do(s, http.MethodPost, "/frames", `{"payload_hex":"zz"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hex, got %d", rr.Code)
	}
	if rr := do(s, http.MethodPost, "/frames", `{"payload_hex":""}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty payload, got %d", rr.Code)
	}

	port.connected = false
	if rr := do(s, http.MethodPost, "/frames", `{"payload_hex":"01"}`); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while disconnected, got %d", rr.Code)
	}
}

func TestStatsRoute(t *testing.T) {
	testlog.Start(t)
	port := &stubPort{connected: true, stats: frame.Stats{Bytes: 12, Packets: 2, ChecksumMismatch: 1}}
	s := newTestServer(port)

	rr := do(s, http.MethodGet, "/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Connected bool        `json:"connected"`
		Decoder   frame.Stats `json:"decoder"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Connected || body.Decoder != port.stats {
		t.Fatalf("unexpected stats body: %+v", body)
	}
	if rr := do(s, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rr.Code)
	}
}
