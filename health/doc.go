// Package health provides liveness, readiness and component checks for the
// digit service.
//
// A Checker reports Healthy, Degraded or Unhealthy. The Aggregator runs
// registered checkers concurrently under one deadline and OverallStatus
// folds their results into the most severe status.
//
// Built-in checkers:
//
//   - EngineChecker computes a few digits and compares them with known ones.
//   - CacheChecker reports cache statistics and degrades on a high error ratio.
//   - MemoryChecker reports heap pressure against a budget.
//
// HTTP handlers:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//	// GET /healthz        liveness, always OK
//	// GET /readyz         200 unless a check is unhealthy
//	// GET /health         JSON report of every check
//	// GET /health/{name}  JSON report of one check
package health
