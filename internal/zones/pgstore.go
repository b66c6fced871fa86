package zones

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a Store backed by a pgx connection pool.
//
// Expected schema:
//
//	shipping_zones(id, name, regions jsonb, postal_patterns text[],
//	               postal_ranges jsonb, excluded_postal_codes text[],
//	               priority int, active bool)
//	shipping_methods(id, code, name, base_rate, currency, transit_days,
//	                 display_order, active bool)
//	shipping_rates(id, method_id, zone_id, amount, currency,
//	               min_weight, max_weight, min_total, max_total,
//	               conditions jsonb, active bool)
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a Store over an existing pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ListActiveZones(ctx context.Context) ([]Zone, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, `SELECT id, name, regions, postal_patterns, postal_ranges,
excluded_postal_codes, priority FROM shipping_zones WHERE active ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var (
			z       Zone
			regions []byte
			ranges  []byte
		)
		if err := rows.Scan(&z.ID, &z.Name, &regions, &z.PostalPatterns, &ranges,
			&z.ExcludedPostalCodes, &z.Priority); err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		if len(regions) > 0 {
			if err := json.Unmarshal(regions, &z.Regions); err != nil {
				return nil, fmt.Errorf("decoding regions for zone %s: %w", z.ID, err)
			}
		}
		if len(ranges) > 0 {
			if err := json.Unmarshal(ranges, &z.PostalRanges); err != nil {
				return nil, fmt.Errorf("decoding postal ranges for zone %s: %w", z.ID, err)
			}
		}
		z.Active = true
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (s *PGStore) ListActiveMethods(ctx context.Context) ([]Method, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, `SELECT id, code, name, base_rate, currency, transit_days,
display_order FROM shipping_methods WHERE active ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing methods: %w", err)
	}
	defer rows.Close()

	var methods []Method
	for rows.Next() {
		var m Method
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.BaseRate, &m.Currency,
			&m.TransitDays, &m.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scanning method: %w", err)
		}
		m.Active = true
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *PGStore) GetMethodByCode(ctx context.Context, code string) (Method, bool, error) {
	if s == nil || s.pool == nil {
		return Method{}, false, ErrStoreUnavailable
	}
	var m Method
	err := s.pool.QueryRow(ctx, `SELECT id, code, name, base_rate, currency, transit_days,
display_order FROM shipping_methods WHERE active AND lower(code) = lower($1)`, code).
		Scan(&m.ID, &m.Code, &m.Name, &m.BaseRate, &m.Currency, &m.TransitDays, &m.DisplayOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Method{}, false, nil
		}
		return Method{}, false, fmt.Errorf("fetching method %q: %w", code, err)
	}
	m.Active = true
	return m, true, nil
}

func (s *PGStore) GetMethodByID(ctx context.Context, id string) (Method, bool, error) {
	if s == nil || s.pool == nil {
		return Method{}, false, ErrStoreUnavailable
	}
	var m Method
	err := s.pool.QueryRow(ctx, `SELECT id, code, name, base_rate, currency, transit_days,
display_order FROM shipping_methods WHERE active AND id = $1`, id).
		Scan(&m.ID, &m.Code, &m.Name, &m.BaseRate, &m.Currency, &m.TransitDays, &m.DisplayOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Method{}, false, nil
		}
		return Method{}, false, fmt.Errorf("fetching method %q: %w", id, err)
	}
	m.Active = true
	return m, true, nil
}

func (s *PGStore) ListActiveRates(ctx context.Context, methodID string, zoneIDs []string) ([]Rate, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	if len(zoneIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id, method_id, zone_id, amount, currency,
min_weight, max_weight, min_total, max_total, conditions
FROM shipping_rates WHERE active AND method_id = $1 AND zone_id = ANY($2)`, methodID, zoneIDs)
	if err != nil {
		return nil, fmt.Errorf("listing rates: %w", err)
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var (
			r     Rate
			conds []byte
		)
		if err := rows.Scan(&r.ID, &r.MethodID, &r.ZoneID, &r.Amount, &r.Currency,
			&r.MinWeight, &r.MaxWeight, &r.MinTotal, &r.MaxTotal, &conds); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		if len(conds) > 0 {
			if err := json.Unmarshal(conds, &r.Conditions); err != nil {
				return nil, fmt.Errorf("decoding conditions for rate %s: %w", r.ID, err)
			}
		}
		r.Active = true
		rates = append(rates, r)
	}
	return rates, rows.Err()
}
