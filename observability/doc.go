// Package observability provides a metrics extension built on
// OpenTelemetry. Register it with the scheduler to track job
// lifecycle counts, combination throughput, retry recoveries, and
// trigger scheduling without touching job code.
package observability
