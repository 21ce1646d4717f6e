package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dropkick0/ai-call-agent/internal/audio"
	"github.com/Dropkick0/ai-call-agent/internal/config"
	"github.com/Dropkick0/ai-call-agent/internal/guardrail"
	"github.com/Dropkick0/ai-call-agent/internal/metrics"
	"github.com/Dropkick0/ai-call-agent/internal/relay"
	"github.com/Dropkick0/ai-call-agent/internal/session"
	"github.com/Dropkick0/ai-call-agent/internal/telephony"
)

// CallPlacer places outbound calls through the telephony provider.
type CallPlacer interface {
	PlaceCall(ctx context.Context, to, webhookURL string) (string, error)
}

// EngineDialer opens a connection to the speech engine for one call.
// Injectable so tests can run the media-stream path without a live engine.
type EngineDialer func(ctx context.Context) (relay.EngineConn, error)

// Deps contains the collaborators the HTTP server wires into each call.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registry   *session.Registry
	Metrics    *metrics.Metrics
	Validator  *guardrail.Validator
	Codec      audio.Transcoder
	Instructor *relay.Instructor
	Placer     CallPlacer
	DialEngine EngineDialer
	Finalize   func(*session.CallSession)
}

// HTTPServer serves the telephony webhook, the media-stream WebSocket, and
// the monitoring endpoints.
type HTTPServer struct {
	server   *http.Server
	logger   *slog.Logger
	deps     Deps
	upgrader websocket.Upgrader

	startTime time.Time
}

// NewHTTPServer creates the HTTP server with all routes configured.
func NewHTTPServer(deps Deps) *HTTPServer {
	h := &HTTPServer{
		logger:    deps.Logger,
		deps:      deps,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The telephony provider connects from its own infrastructure.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", deps.Config.Server.Address, deps.Config.Server.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Media-stream connections are long-lived; no write timeout.
		IdleTimeout: 60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Outbound call placement
	mux.HandleFunc("/make-call", h.withMetrics("/make-call", h.handleMakeCall))

	// Telephony webhook returning the media-stream TwiML
	mux.HandleFunc("/outgoing-call", h.withMetrics("/outgoing-call", h.handleOutgoingCall))

	// Bidirectional media stream (WebSocket upgrade, not wrapped: the
	// request lives as long as the call)
	mux.HandleFunc("/media-stream", h.handleMediaStream)

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Active call monitoring
	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.deps.Metrics.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode), duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP server",
		slog.String("address", h.server.Addr),
		slog.String("public_host", h.deps.Config.Server.PublicHost),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server...")

	return h.server.Shutdown(ctx)
}

// handleMakeCall implements the POST /make-call endpoint
func (h *HTTPServer) handleMakeCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.deps.Placer == nil {
		http.Error(w, "Outbound calling not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		http.Error(w, "Request body must be JSON with a 'to' number", http.StatusBadRequest)
		return
	}

	webhookURL := fmt.Sprintf("https://%s/outgoing-call", h.deps.Config.Server.PublicHost)
	callSID, err := h.deps.Placer.PlaceCall(r.Context(), req.To, webhookURL)
	if err != nil {
		h.logger.Error("failed to place call",
			slog.String("to", req.To),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Failed to place call", http.StatusBadGateway)
		return
	}

	h.logger.Info("outbound call placed",
		slog.String("to", req.To),
		slog.String("call_id", callSID),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"call_sid": callSID,
		"status":   "initiated",
	})
}

// handleOutgoingCall implements the telephony webhook. The provider fetches
// it when the callee answers; the returned TwiML connects the call's media
// to /media-stream.
func (h *HTTPServer) handleOutgoingCall(w http.ResponseWriter, r *http.Request) {
	twiml, err := telephony.OutgoingCallTwiML(h.deps.Config.Server.PublicHost)
	if err != nil {
		h.logger.Error("failed to build TwiML", slog.String("error", err.Error()))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, twiml)
}

// handleMediaStream upgrades to WebSocket and runs one relay for the call's
// lifetime. The handler returns when the call ends.
func (h *HTTPServer) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("media-stream upgrade failed", slog.String("error", err.Error()))
		return
	}
	tel := telephony.NewConn(ws)

	h.logger.Info("media stream connected", slog.String("remote", r.RemoteAddr))

	eng, err := h.deps.DialEngine(r.Context())
	if err != nil {
		h.logger.Error("engine dial failed", slog.String("error", err.Error()))
		tel.Close()
		return
	}

	coordinator := relay.New(relay.Config{
		Logger:     h.logger,
		Registry:   h.deps.Registry,
		Metrics:    h.deps.Metrics,
		Validator:  h.deps.Validator,
		Codec:      h.deps.Codec,
		Instructor: h.deps.Instructor,
		Finalize:   h.deps.Finalize,
	}, tel, eng)

	coordinator.Run(r.Context())
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "ai-call-agent",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"relay": map[string]interface{}{
				"status":       "running",
				"active_calls": h.deps.Registry.ActiveCount(),
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleSessions implements the /sessions endpoint
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos := h.deps.Registry.Snapshot()

	response := map[string]interface{}{
		"total_sessions": len(infos),
		"timestamp":      time.Now().UTC(),
		"sessions":       infos,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "AI Call Agent",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":              "API documentation",
			"POST /make-call":    "Place an outbound call",
			"ANY /outgoing-call": "Telephony webhook returning stream TwiML",
			"WS /media-stream":   "Bidirectional call media stream",
			"GET /health":        "Service health check",
			"GET /sessions":      "List active call sessions",
			"GET /metrics":       "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
