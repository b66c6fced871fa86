package zones_test

import (
	"context"
	"testing"
	"time"

	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/parcelforge/shipping/internal/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = telemetry.NewMetrics()

func newTestResolver(store zones.Store) *zones.Resolver {
	logger := otelzap.New(zap.NewNop())
	return zones.NewResolver(store, logger, testMetrics, zones.TransitDaysETA)
}

func floatPtr(v float64) *float64 { return &v }

func destination(country, state, postal string) *zones.ResolveRequest {
	return &zones.ResolveRequest{CountryCode: country, State: state, PostalCode: postal}
}

func TestResolver_MatchZones_RegionAndPattern(t *testing.T) {
	resolver := newTestResolver(nil)
	zoneSet := []zones.Zone{
		{ID: "domestic", Regions: []zones.Region{{Country: "US"}}, Priority: 1, Active: true},
		{ID: "west", PostalPatterns: []string{`^9\d{4}$`}, Priority: 5, Active: true},
		{ID: "inactive", Regions: []zones.Region{{Country: "US"}}, Priority: 9},
	}

	matched := resolver.MatchZones(zoneSet, destination("US", "OR", "97201"))

	require.Len(t, matched, 2)
	// Highest priority first.
	assert.Equal(t, "west", matched[0].ID)
	assert.Equal(t, "domestic", matched[1].ID)
}

func TestResolver_MatchZones_RegionRowFields(t *testing.T) {
	resolver := newTestResolver(nil)
	zoneSet := []zones.Zone{
		{ID: "oregon", Regions: []zones.Region{{Country: "US", State: "OR"}}, Active: true},
		{ID: "empty-row", Regions: []zones.Region{{}}, Active: true},
	}

	// Every set field of a row must match.
	assert.Len(t, resolver.MatchZones(zoneSet, destination("US", "OR", "97201")), 1)
	assert.Empty(t, resolver.MatchZones(zoneSet, destination("US", "WA", "98101")))
	assert.Empty(t, resolver.MatchZones(zoneSet, destination("CA", "OR", "97201")))
}

func TestResolver_MatchZones_RegionRowPostalCode(t *testing.T) {
	resolver := newTestResolver(nil)
	zoneSet := []zones.Zone{
		{ID: "pinned", Regions: []zones.Region{{Country: "US", PostalCode: "97201"}}, Active: true},
	}

	// A region row carrying a postal code matches that exact code even when
	// the zone has no pattern or range covering it.
	matched := resolver.MatchZones(zoneSet, destination("US", "OR", "97201"))
	require.Len(t, matched, 1)
	assert.Equal(t, "pinned", matched[0].ID)

	assert.Empty(t, resolver.MatchZones(zoneSet, destination("US", "OR", "97202")))
}

func TestResolver_MatchZones_ExclusionOverridesMembership(t *testing.T) {
	resolver := newTestResolver(nil)
	zoneSet := []zones.Zone{
		{
			ID:                  "domestic",
			Regions:             []zones.Region{{Country: "US"}},
			ExcludedPostalCodes: []string{"97201"},
			Active:              true,
		},
	}

	matched := resolver.MatchZones(zoneSet, destination("US", "OR", "97201"))

	assert.Empty(t, matched)
}

func TestResolver_MatchZones_PostalRange(t *testing.T) {
	resolver := newTestResolver(nil)
	zoneSet := []zones.Zone{
		{ID: "band", PostalRanges: []zones.PostalRange{{From: "400000", To: "499999"}}, Active: true},
	}

	assert.Len(t, resolver.MatchZones(zoneSet, destination("IN", "MH", "400001")), 1)
	assert.Empty(t, resolver.MatchZones(zoneSet, destination("IN", "MH", "500001")))
	// Bounds are inclusive.
	assert.Len(t, resolver.MatchZones(zoneSet, destination("IN", "MH", "499999")), 1)
}

func TestResolver_MatchZones_MalformedPatternSkipped(t *testing.T) {
	resolver := newTestResolver(nil)
	zoneSet := []zones.Zone{
		{ID: "bad", PostalPatterns: []string{`[`}, Active: true},
		{ID: "good", PostalPatterns: []string{`^4`}, Active: true},
	}

	matched := resolver.MatchZones(zoneSet, destination("IN", "", "400001"))

	require.Len(t, matched, 1)
	assert.Equal(t, "good", matched[0].ID)
}

func TestResolver_SelectRate_CheapestAcrossZones(t *testing.T) {
	resolver := newTestResolver(nil)
	rateSet := []zones.Rate{
		{ID: "r1", ZoneID: "a", Amount: 5.00, Active: true},
		{ID: "r2", ZoneID: "b", Amount: 3.00, Active: true},
	}

	best, err := resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 1})

	require.NoError(t, err)
	assert.Equal(t, "r2", best.ID)
	assert.Equal(t, 3.00, best.Amount)
}

func TestResolver_SelectRate_WeightBounds(t *testing.T) {
	resolver := newTestResolver(nil)
	rateSet := []zones.Rate{
		{ID: "heavy", ZoneID: "a", Amount: 2.00, MinWeight: floatPtr(10), Active: true},
		{ID: "any", ZoneID: "a", Amount: 6.00, Active: true},
	}

	best, err := resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 5})

	require.NoError(t, err)
	assert.Equal(t, "any", best.ID)
}

func TestResolver_SelectRate_NothingApplies(t *testing.T) {
	resolver := newTestResolver(nil)
	rateSet := []zones.Rate{
		{ID: "heavy", ZoneID: "a", Amount: 2.00, MinWeight: floatPtr(10), Active: true},
	}

	_, err := resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 5})

	assert.ErrorIs(t, err, zones.ErrRateUnavailable)
}

func TestResolver_SelectRate_Conditions(t *testing.T) {
	resolver := newTestResolver(nil)
	rateSet := []zones.Rate{
		{
			ID: "vip", ZoneID: "a", Amount: 1.00, Active: true,
			Conditions: &zones.Conditions{CustomerGroups: []string{"vip"}},
		},
		{
			ID: "weekend", ZoneID: "a", Amount: 2.00, Active: true,
			Conditions: &zones.Conditions{Weekdays: []string{"Saturday", "Sunday"}},
		},
		{ID: "open", ZoneID: "a", Amount: 4.00, Active: true},
	}

	// A Wednesday, regular customer.
	at := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	best, err := resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 1, At: at})
	require.NoError(t, err)
	assert.Equal(t, "open", best.ID)

	// Same day, VIP customer.
	best, err = resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 1, At: at, CustomerGroup: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, "vip", best.ID)

	// A Saturday, regular customer.
	saturday := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	best, err = resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 1, At: saturday})
	require.NoError(t, err)
	assert.Equal(t, "weekend", best.ID)
}

func TestResolver_SelectRate_TimeRange(t *testing.T) {
	resolver := newTestResolver(nil)
	rateSet := []zones.Rate{
		{
			ID: "offpeak", ZoneID: "a", Amount: 1.50, Active: true,
			Conditions: &zones.Conditions{TimeRanges: []zones.TimeRange{{From: "22:00", To: "23:59"}}},
		},
		{ID: "open", ZoneID: "a", Amount: 3.00, Active: true},
	}

	evening := time.Date(2025, 6, 11, 22, 30, 0, 0, time.UTC)
	best, err := resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 1, At: evening})
	require.NoError(t, err)
	assert.Equal(t, "offpeak", best.ID)

	noon := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)
	best, err = resolver.SelectRate(rateSet, &zones.ResolveRequest{WeightKG: 1, At: noon})
	require.NoError(t, err)
	assert.Equal(t, "open", best.ID)
}

func standardMethod() zones.Method {
	return zones.Method{
		ID: "m1", Code: "standard", Name: "Standard Shipping",
		BaseRate: 7.99, Currency: "USD", TransitDays: 5, Active: true,
	}
}

func TestResolver_Resolve_ZoneRateWins(t *testing.T) {
	store := zones.NewMemoryStore(
		[]zones.Zone{
			{ID: "za", Regions: []zones.Region{{Country: "IN"}}, Priority: 1, Active: true},
			{ID: "zb", PostalPatterns: []string{`^4\d{5}$`}, Priority: 10, Active: true},
		},
		[]zones.Method{standardMethod()},
		[]zones.Rate{
			{ID: "ra", MethodID: "m1", ZoneID: "za", Amount: 5.00, Active: true},
			{ID: "rb", MethodID: "m1", ZoneID: "zb", Amount: 3.00, Active: true},
		},
	)
	resolver := newTestResolver(store)

	resolved, err := resolver.Resolve(context.Background(), &zones.ResolveRequest{
		MethodCode:  "standard",
		CountryCode: "IN",
		PostalCode:  "400001",
		WeightKG:    2,
	})

	require.NoError(t, err)
	// Cheapest applicable rate wins across all matched zones, regardless of
	// zone priority.
	assert.Equal(t, 3.00, resolved.Amount)
	assert.Equal(t, "zb", resolved.ZoneID)
	assert.False(t, resolved.BaseRate)
}

func TestResolver_Resolve_BaseRateFallback(t *testing.T) {
	store := zones.NewMemoryStore(
		[]zones.Zone{{ID: "za", Regions: []zones.Region{{Country: "IN"}}, Priority: 1, Active: true}},
		[]zones.Method{standardMethod()},
		[]zones.Rate{
			{ID: "heavy", MethodID: "m1", ZoneID: "za", Amount: 4.00, MinWeight: floatPtr(10), Active: true},
		},
	)
	resolver := newTestResolver(store)

	resolved, err := resolver.Resolve(context.Background(), &zones.ResolveRequest{
		MethodCode:  "standard",
		CountryCode: "IN",
		PostalCode:  "400001",
		WeightKG:    5,
	})

	require.NoError(t, err)
	assert.Equal(t, 7.99, resolved.Amount)
	assert.True(t, resolved.BaseRate)
	assert.Empty(t, resolved.ZoneID)
}

func TestResolver_Resolve_NoZoneMatches(t *testing.T) {
	store := zones.NewMemoryStore(
		[]zones.Zone{{ID: "za", Regions: []zones.Region{{Country: "IN"}}, Priority: 1, Active: true}},
		[]zones.Method{standardMethod()},
		nil,
	)
	resolver := newTestResolver(store)

	resolved, err := resolver.Resolve(context.Background(), &zones.ResolveRequest{
		MethodCode:  "standard",
		CountryCode: "FR",
		PostalCode:  "75001",
	})

	require.NoError(t, err)
	assert.True(t, resolved.BaseRate)
	assert.Equal(t, 7.99, resolved.Amount)
}

func TestResolver_Resolve_MethodNotFound(t *testing.T) {
	store := zones.NewMemoryStore(nil, nil, nil)
	resolver := newTestResolver(store)

	_, err := resolver.Resolve(context.Background(), &zones.ResolveRequest{
		MethodCode:  "teleport",
		CountryCode: "US",
	})

	assert.ErrorIs(t, err, zones.ErrMethodNotFound)
}

func TestResolver_Resolve_ETAFromTransitDays(t *testing.T) {
	store := zones.NewMemoryStore(
		nil,
		[]zones.Method{standardMethod()},
		nil,
	)
	resolver := newTestResolver(store)

	at := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	resolved, err := resolver.Resolve(context.Background(), &zones.ResolveRequest{
		MethodCode:  "standard",
		CountryCode: "US",
		At:          at,
	})

	require.NoError(t, err)
	require.NotNil(t, resolved.EstimatedAt)
	assert.Equal(t, at.AddDate(0, 0, 5), *resolved.EstimatedAt)
}

func TestMemoryStore_GetMethodByID(t *testing.T) {
	store := zones.NewMemoryStore(nil, []zones.Method{
		standardMethod(),
		{ID: "m2", Code: "retired", Name: "Retired", Active: false},
	}, nil)

	method, ok, err := store.GetMethodByID(context.Background(), "m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "standard", method.Code)

	// Inactive methods are not served.
	_, ok, err = store.GetMethodByID(context.Background(), "m2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_MethodByID(t *testing.T) {
	store := zones.NewMemoryStore(nil, []zones.Method{standardMethod()}, nil)
	resolver := newTestResolver(store)

	method, err := resolver.MethodByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Standard Shipping", method.Name)

	_, err = resolver.MethodByID(context.Background(), "missing")
	assert.ErrorIs(t, err, zones.ErrMethodNotFound)
}
