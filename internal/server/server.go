package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/franckalain/nutritionscore/internal/models"
	"github.com/franckalain/nutritionscore/internal/nutriscore"
	"github.com/franckalain/nutritionscore/internal/openfoodfacts"
	"github.com/franckalain/nutritionscore/internal/scoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, this should be more restrictive
	},
}

const shutdownTimeout = 5 * time.Second

// Message is the envelope of every websocket frame
type Message struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type productRequest struct {
	Product *openfoodfacts.Product `json:"product"`
	Options scoring.Options        `json:"options"`
}

// Options configures the transport. A zero RateLimit disables rate limiting.
type Options struct {
	Debug     bool
	RateLimit float64 // messages per second per connection
	RateBurst int
}

type Server struct {
	service *scoring.Service
	metrics *Metrics
	opts    Options
}

func New(service *scoring.Service, opts Options) *Server {
	if opts.Debug {
		log.Debug().Msg("Debug logging enabled")
	}
	if opts.RateLimit > 0 && opts.RateBurst < 1 {
		opts.RateBurst = 1
	}
	return &Server{
		service: service,
		metrics: NewMetrics(),
		opts:    opts,
	}
}

// Metrics returns the collectors served on /metrics
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler(staticDir string) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWebSocket)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	// Serve static files
	if staticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir))).
			Methods(http.MethodGet, http.MethodHead)
	}
	return router
}

// Start serves on port until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start(port, staticDir string) error {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(staticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Str("static_dir", staticDir).Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	clientID := uuid.New().String()
	s.metrics.ActiveClients.Inc()
	defer s.metrics.ActiveClients.Dec()

	var limiter *rate.Limiter
	if s.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.RateBurst)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("client", clientID).Msg("Error reading message")
			}
			break
		}

		if limiter != nil && !limiter.Allow() {
			s.metrics.Errors.WithLabelValues("rate_limited").Inc()
			s.sendError(conn, "Rate limit exceeded")
			continue
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug().Err(err).Str("client", clientID).Msg("Error parsing message")
			s.sendError(conn, "Invalid message format")
			continue
		}

		s.handleWebSocketMessage(conn, msg)
	}
}

func (s *Server) handleWebSocketMessage(conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "score":
		s.handleScore(conn, msg.Data)
	case "score_product":
		s.handleScoreProduct(conn, msg.Data)
	case "get_additives":
		s.handleGetAdditives(conn)
	case "":
		s.sendError(conn, "Invalid message format")
	default:
		s.metrics.Errors.WithLabelValues("unknown").Inc()
		s.sendError(conn, "Unknown message type")
	}
}

func (s *Server) handleScore(conn *websocket.Conn, data json.RawMessage) {
	var in scoring.Input
	if err := decodeData(data, &in); err != nil {
		s.metrics.Errors.WithLabelValues("score").Inc()
		s.sendError(conn, "Invalid score request")
		return
	}

	result, err := s.service.Score(in)
	s.sendResult(conn, "score", result, err)
}

func (s *Server) handleScoreProduct(conn *websocket.Conn, data json.RawMessage) {
	var req productRequest
	if err := decodeData(data, &req); err != nil {
		s.metrics.Errors.WithLabelValues("score_product").Inc()
		s.sendError(conn, "Invalid product request")
		return
	}

	result, err := s.service.ScoreProduct(req.Product, req.Options)
	s.sendResult(conn, "score_product", result, err)
}

func (s *Server) handleGetAdditives(conn *websocket.Conn) {
	records := []models.AdditiveRecord{}
	if reg := s.service.Registry(); reg != nil {
		records = reg.Records()
	}
	s.sendMessage(conn, "additives", records)
}

func (s *Server) sendResult(conn *websocket.Conn, messageType string, result *models.ScoreResult, err error) {
	if err != nil {
		s.metrics.Errors.WithLabelValues(messageType).Inc()
		log.Debug().Err(err).Str("type", messageType).Msg("Scoring request rejected")
		s.sendError(conn, clientMessage(err))
		return
	}

	result.ID = uuid.New().String()
	s.metrics.ObserveScore(result)
	s.sendMessage(conn, "score_result", result)
}

// clientMessage hides internal failures and reports input errors as is
func clientMessage(err error) string {
	switch {
	case errors.Is(err, nutriscore.ErrInvalidCategory),
		errors.Is(err, scoring.ErrInvalidOptions),
		errors.Is(err, openfoodfacts.ErrProductNotFound):
		return err.Error()
	default:
		return "Failed to score product"
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}

func (s *Server) sendMessage(conn *websocket.Conn, messageType string, data any) {
	msg := map[string]any{
		"type": messageType,
		"data": data,
	}

	if s.opts.Debug {
		log.Debug().Str("type", messageType).Msg("Sending message to client")
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Error().Err(err).Msg("Error sending message")
	}
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	msg := Message{
		Type:    "error",
		Message: message,
	}

	if err := conn.WriteJSON(msg); err != nil {
		log.Error().Err(err).Msg("Error sending error message")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
