// internal/writequeue/metrics.go
package writequeue

import "expvar"

var (
	jobsEnqueued = expvar.NewMap("catalog_cache_jobs_enqueued_total")
	jobsApplied  = expvar.NewMap("catalog_cache_jobs_applied_total")
	jobsFailed   = expvar.NewMap("catalog_cache_jobs_failed_total")
	jobsRetried  = expvar.NewMap("catalog_cache_jobs_retried_total")
)

func incEnqueued(kind string) { jobsEnqueued.Add(kind, 1) }
func incApplied(kind string)  { jobsApplied.Add(kind, 1) }
func incFailed(kind string)   { jobsFailed.Add(kind, 1) }
func incRetried(kind string)  { jobsRetried.Add(kind, 1) }
