package zones

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var (
	// ErrMethodNotFound is returned when no active method matches the code.
	ErrMethodNotFound = errors.New("shipping method not found")

	// ErrRateUnavailable signals that no zone rate applies to a request.
	// Resolution falls back to the method base rate when it surfaces.
	ErrRateUnavailable = errors.New("no applicable shipping rate")
)

// ETACalculator produces a delivery estimate for a resolved method.
// Pluggable so merchants can supply cutoff-aware or holiday-aware logic.
type ETACalculator func(method Method, at time.Time) *time.Time

// TransitDaysETA estimates delivery by adding the method's transit days.
func TransitDaysETA(method Method, at time.Time) *time.Time {
	if method.TransitDays <= 0 {
		return nil
	}
	eta := at.AddDate(0, 0, method.TransitDays)
	return &eta
}

// Resolver resolves internal shipping rates against merchant zone data.
type Resolver struct {
	store   Store
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
	eta     ETACalculator
	now     func() time.Time
}

// NewResolver creates a Resolver. A nil eta disables delivery estimates.
func NewResolver(store Store, logger *otelzap.Logger, metrics *telemetry.Metrics, eta ETACalculator) *Resolver {
	return &Resolver{store: store, logger: logger, metrics: metrics, eta: eta, now: time.Now}
}

// MatchZones returns every active zone the destination belongs to, highest
// priority first. Exclusions are checked before any membership rule: an
// excluded postal code disqualifies its zone even when a region row or
// pattern would otherwise match.
func (r *Resolver) MatchZones(zones []Zone, req *ResolveRequest) []Zone {
	var matched []Zone
	for _, z := range zones {
		if !z.Active {
			continue
		}
		if excluded(z, req.PostalCode) {
			continue
		}
		if zoneMatches(z, req) {
			matched = append(matched, z)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Priority > matched[j].Priority })
	return matched
}

func excluded(z Zone, postalCode string) bool {
	if postalCode == "" {
		return false
	}
	for _, ex := range z.ExcludedPostalCodes {
		if strings.EqualFold(ex, postalCode) {
			return true
		}
	}
	return false
}

func zoneMatches(z Zone, req *ResolveRequest) bool {
	for _, row := range z.Regions {
		if regionRowMatches(row, req) {
			return true
		}
	}
	if req.PostalCode != "" {
		for _, pattern := range z.PostalPatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue // malformed merchant pattern, skip it
			}
			if re.MatchString(req.PostalCode) {
				return true
			}
		}
		// Inclusive lexicographic comparison; numeric-looking codes of equal
		// width order the same way, mixed-width codes follow string order.
		for _, pr := range z.PostalRanges {
			if req.PostalCode >= pr.From && req.PostalCode <= pr.To {
				return true
			}
		}
	}
	return false
}

// regionRowMatches applies one explicit region row. A postal-code row is the
// strongest membership claim: it matches that exact code. Country, state,
// and city narrow the row when set; an empty row never matches.
func regionRowMatches(row Region, req *ResolveRequest) bool {
	if row.Country == "" && row.State == "" && row.City == "" && row.PostalCode == "" {
		return false
	}
	if row.PostalCode != "" && !strings.EqualFold(row.PostalCode, req.PostalCode) {
		return false
	}
	if row.Country != "" && !strings.EqualFold(row.Country, req.CountryCode) {
		return false
	}
	if row.State != "" && !strings.EqualFold(row.State, req.State) {
		return false
	}
	if row.City != "" && !strings.EqualFold(row.City, req.City) {
		return false
	}
	return true
}

// SelectRate picks the cheapest rate that satisfies every bound and
// condition of the request, across all matched zones regardless of zone
// priority. Returns ErrRateUnavailable when nothing applies.
func (r *Resolver) SelectRate(rates []Rate, req *ResolveRequest) (*Rate, error) {
	at := req.At
	if at.IsZero() {
		at = r.now()
	}

	var best *Rate
	for i := range rates {
		rate := &rates[i]
		if !rate.Active || !rateApplies(rate, req, at) {
			continue
		}
		if best == nil || rate.Amount < best.Amount {
			best = rate
		}
	}
	if best == nil {
		return nil, ErrRateUnavailable
	}
	return best, nil
}

func rateApplies(rate *Rate, req *ResolveRequest, at time.Time) bool {
	if rate.MinWeight != nil && req.WeightKG < *rate.MinWeight {
		return false
	}
	if rate.MaxWeight != nil && req.WeightKG > *rate.MaxWeight {
		return false
	}
	if rate.MinTotal != nil && req.OrderTotal < *rate.MinTotal {
		return false
	}
	if rate.MaxTotal != nil && req.OrderTotal > *rate.MaxTotal {
		return false
	}
	if rate.Conditions == nil {
		return true
	}
	c := rate.Conditions
	if len(c.ProductCategories) > 0 && !anyOverlap(c.ProductCategories, req.ProductCategories) {
		return false
	}
	if len(c.CustomerGroups) > 0 && !containsFold(c.CustomerGroups, req.CustomerGroup) {
		return false
	}
	if len(c.Weekdays) > 0 && !containsFold(c.Weekdays, at.Weekday().String()) {
		return false
	}
	if len(c.TimeRanges) > 0 && !inAnyTimeRange(c.TimeRanges, at) {
		return false
	}
	return true
}

func anyOverlap(want, have []string) bool {
	for _, h := range have {
		if containsFold(want, h) {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func inAnyTimeRange(ranges []TimeRange, at time.Time) bool {
	clock := at.Format("15:04")
	for _, tr := range ranges {
		if clock >= tr.From && clock <= tr.To {
			return true
		}
	}
	return false
}

// Resolve resolves the internal shipping rate for a request. An unknown
// method code is an error; an inapplicable destination or rate set is not,
// the method base rate covers those.
func (r *Resolver) Resolve(ctx context.Context, req *ResolveRequest) (*ResolvedRate, error) {
	method, ok, err := r.store.GetMethodByCode(ctx, req.MethodCode)
	if err != nil {
		return nil, fmt.Errorf("looking up method %q: %w", req.MethodCode, err)
	}
	if !ok {
		r.metrics.RecordResolution(req.MethodCode, "method_not_found")
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, req.MethodCode)
	}

	resolved := &ResolvedRate{
		MethodID:    method.ID,
		MethodCode:  method.Code,
		MethodName:  method.Name,
		Amount:      method.BaseRate,
		Currency:    method.Currency,
		BaseRate:    true,
		TransitDays: method.TransitDays,
	}

	allZones, err := r.store.ListActiveZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	matched := r.MatchZones(allZones, req)

	if len(matched) > 0 {
		zoneIDs := make([]string, len(matched))
		for i, z := range matched {
			zoneIDs[i] = z.ID
		}
		rates, err := r.store.ListActiveRates(ctx, method.ID, zoneIDs)
		if err != nil {
			return nil, fmt.Errorf("listing rates: %w", err)
		}

		best, err := r.SelectRate(rates, req)
		switch {
		case err == nil:
			resolved.Amount = best.Amount
			if best.Currency != "" {
				resolved.Currency = best.Currency
			}
			resolved.ZoneID = best.ZoneID
			resolved.RateID = best.ID
			resolved.BaseRate = false
		case errors.Is(err, ErrRateUnavailable):
			r.logger.Debug("No zone rate applies, using base rate",
				zap.String("method", method.Code),
				zap.Strings("zones", zoneIDs),
			)
		default:
			return nil, err
		}
	}

	if r.eta != nil {
		at := req.At
		if at.IsZero() {
			at = r.now()
		}
		resolved.EstimatedAt = r.eta(method, at)
	}

	outcome := "zone_rate"
	if resolved.BaseRate {
		outcome = "base_rate"
	}
	r.metrics.RecordResolution(method.Code, outcome)
	return resolved, nil
}

// Methods lists active shipping methods in display order.
func (r *Resolver) Methods(ctx context.Context) ([]Method, error) {
	return r.store.ListActiveMethods(ctx)
}

// MethodByID fetches one active shipping method by its identifier.
// Returns ErrMethodNotFound when no active method carries the id.
func (r *Resolver) MethodByID(ctx context.Context, id string) (Method, error) {
	method, ok, err := r.store.GetMethodByID(ctx, id)
	if err != nil {
		return Method{}, fmt.Errorf("looking up method id %q: %w", id, err)
	}
	if !ok {
		return Method{}, fmt.Errorf("%w: %s", ErrMethodNotFound, id)
	}
	return method, nil
}
