// Package api serves pi digits over HTTP.
//
// Routes:
//
//	GET  /api/pi?start=S&count=C   chunk of digits after the decimal point
//	POST /api/pi/warm?digits=N     precompute N digits (admin role when auth is on)
//	GET  /api/pi/stats             cache and bulkhead counters
//	GET  /healthz /readyz /health /health/{name}
//	GET  /metrics                  when the prometheus exporter is selected
//
// A range request computes the prefix that ends at start+count, so every
// chunk is a slice of one canonical digit string and can be cached by
// clients forever.
package api
