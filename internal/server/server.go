// Package server exposes the shipping service over HTTP/JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/parcelforge/shipping/internal/rates"
	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/parcelforge/shipping/internal/zones"
	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the shipping service.
type Server struct {
	port      int
	criterion rates.Criterion
	origin    carrier.Address
	registry  *carrier.Registry
	rates     *rates.Service
	resolver  *zones.Resolver
	logger    *otelzap.Logger
	validate  *validator.Validate
}

// Config holds server configuration.
type Config struct {
	Port int

	// DefaultCriterion is used by the best-quote endpoint when the request
	// does not name one.
	DefaultCriterion rates.Criterion

	// DefaultOrigin fills in the shipment origin when a quote request omits
	// one. Left zero, requests must carry their own origin.
	DefaultOrigin carrier.Address

	// Aggregation tunes the rate aggregation service.
	Aggregation rates.Config
}

// New creates a new server instance. The zone store may be nil when the
// service runs without merchant rate data; the internal-rate endpoints then
// answer 503.
func New(cfg Config, registry *carrier.Registry, store zones.Store, metrics *telemetry.Metrics, logger *otelzap.Logger) *Server {
	if cfg.DefaultCriterion == "" {
		cfg.DefaultCriterion = rates.ByPrice
	}

	var resolver *zones.Resolver
	if store != nil {
		resolver = zones.NewResolver(store, logger, metrics, zones.TransitDaysETA)
	}

	return &Server{
		port:      cfg.Port,
		criterion: cfg.DefaultCriterion,
		origin:    cfg.DefaultOrigin,
		registry:  registry,
		rates:     rates.New(registry, logger, metrics, cfg.Aggregation),
		resolver:  resolver,
		logger:    logger,
		validate:  validator.New(),
	}
}

// Handler builds the route table. Split out from Run so tests can exercise
// the full routing without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/quotes", s.handleQuotes)
	mux.HandleFunc("POST /v1/quotes/best", s.handleBestQuote)
	mux.HandleFunc("GET /v1/tracking/{number}", s.handleTracking)
	mux.HandleFunc("GET /v1/carriers", s.handleCarriers)

	mux.HandleFunc("POST /v1/rates/internal", s.handleInternalRate)
	mux.HandleFunc("GET /v1/rates/methods", s.handleMethods)
	mux.HandleFunc("GET /v1/rates/methods/{id}", s.handleMethodByID)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// quoteRequest is the inbound body for the quote endpoints.
type quoteRequest struct {
	carrier.RateRequest

	// Carriers restricts the quote to a carrier-id subset. Empty means all.
	Carriers []string `json:"carriers,omitempty"`

	// Criterion applies to the best-quote endpoint only.
	Criterion rates.Criterion `json:"criterion,omitempty"`
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuoteRequest(w, r)
	if !ok {
		return
	}

	var result *rates.Result
	if len(req.Carriers) > 0 {
		result = s.rates.QuoteFrom(r.Context(), &req.RateRequest, req.Carriers)
	} else {
		result = s.rates.QuoteAll(r.Context(), &req.RateRequest)
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBestQuote(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuoteRequest(w, r)
	if !ok {
		return
	}

	criterion := req.Criterion
	if criterion == "" {
		criterion = s.criterion
	}

	best := s.rates.BestQuote(r.Context(), &req.RateRequest, criterion)
	if best == nil {
		s.writeError(w, http.StatusNotFound, "no rates available")
		return
	}
	s.writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	resp := s.rates.Track(r.Context(), number)
	if resp == nil {
		s.writeError(w, http.StatusNotFound, "tracking number not recognized by any carrier")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"carriers": s.registry.Infos()})
}

func (s *Server) handleInternalRate(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		s.writeError(w, http.StatusServiceUnavailable, "internal rates are not configured")
		return
	}

	var req zones.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved, err := s.resolver.Resolve(r.Context(), &req)
	if err != nil {
		if errors.Is(err, zones.ErrMethodNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("Internal rate resolution failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "rate resolution failed")
		return
	}
	s.writeJSON(w, http.StatusOK, resolved)
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		s.writeError(w, http.StatusServiceUnavailable, "internal rates are not configured")
		return
	}

	methods, err := s.resolver.Methods(r.Context())
	if err != nil {
		s.logger.Error("Method listing failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "method listing failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"methods": methods})
}

func (s *Server) handleMethodByID(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		s.writeError(w, http.StatusServiceUnavailable, "internal rates are not configured")
		return
	}

	method, err := s.resolver.MethodByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, zones.ErrMethodNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("Method lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "method lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, method)
}

func (s *Server) decodeQuoteRequest(w http.ResponseWriter, r *http.Request) (*quoteRequest, bool) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	if req.Origin == (carrier.Address{}) {
		req.Origin = s.origin
	}
	if err := s.validate.Struct(&req.RateRequest); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
