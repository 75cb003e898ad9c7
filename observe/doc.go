// Package observe provides observability primitives for pi digit computation.
//
// It wraps the digit generator with OpenTelemetry spans and metrics plus a
// JSON structured logger, and exports cache statistics as observable
// instruments. Exporter selection lives in the exporters subpackage.
package observe
