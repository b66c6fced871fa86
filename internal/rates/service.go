// Package rates implements the rate aggregation service: it fans a rate
// request out to registered carriers, merges partial results, and selects a
// best quote by a caller-chosen criterion.
package rates

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Criterion selects how a best quote is picked from an aggregated list.
type Criterion string

const (
	// ByPrice picks the cheapest quote.
	ByPrice Criterion = "price"

	// ByTime picks the quote with the fewest estimated transit days.
	ByTime Criterion = "time"

	// ByValue minimizes totalAmount * estimatedDays.
	ByValue Criterion = "value"
)

// The two criteria deliberately use different fallbacks for quotes without
// a transit estimate: ByTime pushes them last, ByValue assumes a middling
// transit. Both are surfaced as configuration rather than unified.
const (
	DefaultTimeFallbackDays  = 999
	DefaultValueFallbackDays = 5
)

// Config holds aggregation tuning.
type Config struct {
	// PerCarrierTimeout bounds each individual adapter call.
	PerCarrierTimeout time.Duration

	// OverallBudget bounds one whole aggregation request.
	OverallBudget time.Duration

	// TimeFallbackDays substitutes for a missing estimate under ByTime.
	TimeFallbackDays int

	// ValueFallbackDays substitutes for a missing estimate under ByValue.
	ValueFallbackDays int
}

func (c *Config) withDefaults() {
	if c.PerCarrierTimeout == 0 {
		c.PerCarrierTimeout = 30 * time.Second
	}
	if c.OverallBudget == 0 {
		c.OverallBudget = 60 * time.Second
	}
	if c.TimeFallbackDays == 0 {
		c.TimeFallbackDays = DefaultTimeFallbackDays
	}
	if c.ValueFallbackDays == 0 {
		c.ValueFallbackDays = DefaultValueFallbackDays
	}
}

// Result is the outcome of one aggregation call: every successful quote,
// sorted ascending by total amount, plus one error message per failed
// carrier. Partial failure is the normal case, not an error.
type Result struct {
	Rates  []carrier.RateResponse `json:"rates"`
	Errors map[string]string      `json:"errors,omitempty"`
}

// Service is the rate aggregation service.
type Service struct {
	registry *carrier.Registry
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	config   Config
}

// New creates an aggregation service over a registry.
func New(registry *carrier.Registry, logger *otelzap.Logger, metrics *telemetry.Metrics, cfg Config) *Service {
	cfg.withDefaults()
	return &Service{registry: registry, logger: logger, metrics: metrics, config: cfg}
}

// QuoteAll requests quotes from every registered carrier concurrently.
// Individual carrier failures are captured in the error map; the call
// itself always succeeds, even with zero registered carriers.
func (s *Service) QuoteAll(ctx context.Context, req *carrier.RateRequest) *Result {
	return s.quote(ctx, req, s.registry.All(), nil)
}

// QuoteFrom requests quotes from an explicit carrier-id subset. Unknown ids
// produce a "carrier not found" entry in the error map instead of being
// invoked.
func (s *Service) QuoteFrom(ctx context.Context, req *carrier.RateRequest, carrierIDs []string) *Result {
	carriers := make([]carrier.Carrier, 0, len(carrierIDs))
	missing := make(map[string]string)
	for _, id := range carrierIDs {
		c, err := s.registry.Get(id)
		if err != nil {
			missing[id] = carrier.ErrCarrierNotFound.Error()
			continue
		}
		carriers = append(carriers, c)
	}
	return s.quote(ctx, req, carriers, missing)
}

// quote fans out to the given carriers and waits for all to settle.
func (s *Service) quote(ctx context.Context, req *carrier.RateRequest, carriers []carrier.Carrier, seedErrors map[string]string) *Result {
	result := &Result{Rates: []carrier.RateResponse{}, Errors: map[string]string{}}
	for id, msg := range seedErrors {
		result.Errors[id] = msg
	}

	if len(carriers) > 0 {
		ctx, cancel := context.WithTimeout(ctx, s.config.OverallBudget)
		defer cancel()

		var (
			g, gctx = errgroup.WithContext(ctx)
			results = make([][]carrier.RateResponse, len(carriers))
			errMsgs = make([]string, len(carriers))
		)

		for i, c := range carriers {
			g.Go(func() error {
				callCtx, callCancel := context.WithTimeout(gctx, s.config.PerCarrierTimeout)
				defer callCancel()

				start := time.Now()
				rates, err := c.QuoteRates(callCtx, req)
				elapsed := time.Since(start).Seconds()

				if err != nil {
					s.logger.Warn("Carrier quote failed",
						zap.String("carrier", c.ID()),
						zap.Error(err),
					)
					s.metrics.RecordRequest("quote", c.ID(), "error", elapsed)
					s.metrics.RecordError(c.ID(), errorType(err))
					errMsgs[i] = err.Error()
					return nil // one carrier failing must not abort sibling calls
				}

				s.metrics.RecordRequest("quote", c.ID(), "ok", elapsed)
				results[i] = rates
				return nil
			})
		}
		g.Wait()

		for i, c := range carriers {
			if errMsgs[i] != "" {
				result.Errors[c.ID()] = errMsgs[i]
				continue
			}
			result.Rates = append(result.Rates, results[i]...)
		}
	}

	sort.SliceStable(result.Rates, func(i, j int) bool {
		return result.Rates[i].TotalAmount < result.Rates[j].TotalAmount
	})
	return result
}

// BestQuote aggregates quotes from all carriers and picks one by the given
// criterion. Returns nil when no carrier produced a quote.
func (s *Service) BestQuote(ctx context.Context, req *carrier.RateRequest, criterion Criterion) *carrier.RateResponse {
	result := s.QuoteAll(ctx, req)
	return s.Select(result.Rates, criterion)
}

// Select picks the best quote from an already aggregated, ascending-sorted
// list. Returns nil for an empty list.
func (s *Service) Select(rates []carrier.RateResponse, criterion Criterion) *carrier.RateResponse {
	if len(rates) == 0 {
		return nil
	}

	switch criterion {
	case ByTime:
		best := 0
		for i := 1; i < len(rates); i++ {
			if s.daysOr(rates[i], s.config.TimeFallbackDays) < s.daysOr(rates[best], s.config.TimeFallbackDays) {
				best = i
			}
		}
		return &rates[best]
	case ByValue:
		best := 0
		bestScore := rates[0].TotalAmount * float64(s.daysOr(rates[0], s.config.ValueFallbackDays))
		for i := 1; i < len(rates); i++ {
			score := rates[i].TotalAmount * float64(s.daysOr(rates[i], s.config.ValueFallbackDays))
			if score < bestScore {
				best, bestScore = i, score
			}
		}
		return &rates[best]
	default: // ByPrice; the list is already sorted ascending by amount
		return &rates[0]
	}
}

func (s *Service) daysOr(rate carrier.RateResponse, fallback int) int {
	if rate.EstimatedDays > 0 {
		return rate.EstimatedDays
	}
	return fallback
}

// Track tries each registered carrier in registration order until one
// recognizes the tracking number. Returns nil when none do; an unrecognized
// number is an expected outcome, not a fault.
func (s *Service) Track(ctx context.Context, trackingNumber string) *carrier.TrackingResponse {
	for _, c := range s.registry.All() {
		callCtx, cancel := context.WithTimeout(ctx, s.config.PerCarrierTimeout)
		resp, err := c.Track(callCtx, trackingNumber)
		cancel()
		if err != nil {
			s.logger.Debug("Carrier does not recognize tracking number",
				zap.String("carrier", c.ID()),
				zap.String("tracking_number", trackingNumber),
				zap.Error(err),
			)
			continue
		}
		return resp
	}
	return nil
}

func errorType(err error) string {
	var cerr *carrier.Error
	if errors.As(err, &cerr) {
		return string(cerr.Kind)
	}
	return "unknown"
}
