package query

import (
	"fmt"

	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/evidence"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = config.DefaultEvidenceQueryDefaultLimit

	// MaxLimit is the maximum number of records a single query may return.
	MaxLimit = config.DefaultEvidenceQueryMaxLimit
)

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidDispositions contains the dispositions a query may filter on.
var ValidDispositions = map[string]bool{
	"proceed":  true,
	"canceled": true,
}

// Limits bounds query pagination.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the package default limits.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// LimitsFromConfig reads limits from the evidence query section, falling
// back to package defaults for unset values.
func LimitsFromConfig(cfg *config.QueryConfig) Limits {
	l := DefaultLimits()
	if cfg.DefaultLimit > 0 {
		l.Default = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 {
		l.Max = cfg.MaxLimit
	}
	return l
}

// Validate checks a query against the package default limits.
func Validate(q *evidence.Query) error {
	return DefaultLimits().Validate(q)
}

// Validate returns a *evidence.QueryError for the first invalid parameter.
func (l Limits) Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.NewQueryError("limit", fmt.Sprintf("must be >= 0, got %d", q.Limit))
	}
	if l.Max > 0 && q.Limit > l.Max {
		return evidence.NewQueryError("limit", fmt.Sprintf("must be <= %d, got %d", l.Max, q.Limit))
	}
	if q.Offset < 0 {
		return evidence.NewQueryError("offset", fmt.Sprintf("must be >= 0, got %d", q.Offset))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError("sort_order", fmt.Sprintf("invalid value %q (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.Disposition != "" && !ValidDispositions[q.Disposition] {
		return evidence.NewQueryError("disposition", fmt.Sprintf("invalid value %q (must be 'proceed' or 'canceled')", q.Disposition))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.NewQueryError("start_time", "must not be after end_time")
	}
	return nil
}

// ApplyDefaults fills in the default limit and sort order.
func (l Limits) ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = l.Default
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}

// ApplyDefaults fills in package defaults.
func ApplyDefaults(q *evidence.Query) {
	DefaultLimits().ApplyDefaults(q)
}
