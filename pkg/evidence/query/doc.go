// Package query validates evidence queries and applies pagination defaults
// before they reach a storage backend.
//
//	limits := query.LimitsFromConfig(&cfg.Evidence.Query)
//	if err := limits.Validate(q); err != nil {
//	    return err
//	}
//	limits.ApplyDefaults(q)
//	records, err := store.Query(ctx, q)
package query
