// Package retention bounds the evidence store by age and record count.
//
// A Pruner deletes records evaluated more than RetentionDays ago and then
// the oldest records beyond MaxRecords. Either limit may be zero to disable
// it. With ArchivePath set, records are written to a JSON lines file before
// they are deleted.
//
// Scheduled pruning uses a standard cron expression through
// github.com/robfig/cron/v3:
//
//	pruner := retention.NewPruner(store, retention.FromConfig(&cfg.Evidence.Retention),
//	    retention.WithLogger(logger),
//	    retention.WithMetrics(collector),
//	)
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
//
// Prune can also be called directly, as the "evidence prune" command does.
package retention
