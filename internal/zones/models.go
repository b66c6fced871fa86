// Package zones resolves merchant-defined shipping rates: geographic zone
// matching, method lookup, and conditional rate selection.
package zones

import "time"

// Zone is a geographic area a shipping method can price against.
// Destination membership is decided by regions, postal patterns, and postal
// ranges; exclusions always win.
type Zone struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Regions             []Region      `json:"regions"`
	PostalPatterns      []string      `json:"postalPatterns"`
	PostalRanges        []PostalRange `json:"postalRanges"`
	ExcludedPostalCodes []string      `json:"excludedPostalCodes"`
	Priority            int           `json:"priority"`
	Active              bool          `json:"active"`
}

// Region is one explicit membership row of a zone. Every set field must
// match the destination; an empty row matches nothing. A row with a postal
// code pins membership to that exact code.
type Region struct {
	Country    string `json:"country,omitempty"`
	State      string `json:"state,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// PostalRange is an inclusive lexicographic postal-code interval.
type PostalRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Method is a merchant shipping method (e.g. "standard", "express") with a
// base rate used as a fallback when no zone rate applies.
type Method struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	BaseRate     float64 `json:"baseRate"`
	Currency     string  `json:"currency"`
	TransitDays  int     `json:"transitDays"`
	Active       bool    `json:"active"`
	DisplayOrder int     `json:"displayOrder"`
}

// Rate is a price for a method inside a zone, guarded by optional bounds
// and conditions. A rate applies only when every set bound and condition is
// satisfied.
type Rate struct {
	ID         string      `json:"id"`
	MethodID   string      `json:"methodId"`
	ZoneID     string      `json:"zoneId"`
	Amount     float64     `json:"amount"`
	Currency   string      `json:"currency"`
	MinWeight  *float64    `json:"minWeight,omitempty"`
	MaxWeight  *float64    `json:"maxWeight,omitempty"`
	MinTotal   *float64    `json:"minTotal,omitempty"`
	MaxTotal   *float64    `json:"maxTotal,omitempty"`
	Conditions *Conditions `json:"conditions,omitempty"`
	Active     bool        `json:"active"`
}

// Conditions narrows rate applicability beyond weight/total bounds. Empty
// slices mean "no restriction".
type Conditions struct {
	ProductCategories []string    `json:"productCategories,omitempty"`
	CustomerGroups    []string    `json:"customerGroups,omitempty"`
	Weekdays          []string    `json:"weekdays,omitempty"`
	TimeRanges        []TimeRange `json:"timeRanges,omitempty"`
}

// TimeRange is an inclusive time-of-day window, "HH:MM" 24h clock.
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ResolveRequest describes one internal rate resolution.
type ResolveRequest struct {
	MethodCode        string    `json:"methodCode" validate:"required"`
	CountryCode       string    `json:"countryCode" validate:"required,len=2"`
	State             string    `json:"state,omitempty"`
	City              string    `json:"city,omitempty"`
	PostalCode        string    `json:"postalCode,omitempty"`
	WeightKG          float64   `json:"weightKg"`
	OrderTotal        float64   `json:"orderTotal"`
	ProductCategories []string  `json:"productCategories,omitempty"`
	CustomerGroup     string    `json:"customerGroup,omitempty"`
	At                time.Time `json:"at,omitempty"`
}

// ResolvedRate is the resolution outcome: the winning amount plus how it was
// arrived at. ZoneID is empty when the method's base rate was used.
type ResolvedRate struct {
	MethodID    string     `json:"methodId"`
	MethodCode  string     `json:"methodCode"`
	MethodName  string     `json:"methodName"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	ZoneID      string     `json:"zoneId,omitempty"`
	RateID      string     `json:"rateId,omitempty"`
	BaseRate    bool       `json:"baseRate"`
	TransitDays int        `json:"transitDays,omitempty"`
	EstimatedAt *time.Time `json:"estimatedAt,omitempty"`
}
