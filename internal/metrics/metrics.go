// Package metrics defines the metrics abstraction used across the service.
//
// Components record observations through the Backend interface and never
// depend on a concrete vendor client. The Datadog implementation lives in
// the datadog subpackage; Nop is the default when metrics are disabled.
package metrics

// Canonical metric names recorded by the service.
const (
	// MetricImportsTotal counts completed imports, tagged action/status.
	MetricImportsTotal = "sheetsql_imports_total"
	// MetricRowsLoaded counts rows written to the store, tagged action.
	MetricRowsLoaded = "sheetsql_rows_loaded_total"
	// MetricUploadsTotal counts received uploads, tagged status.
	MetricUploadsTotal = "sheetsql_uploads_total"
	// MetricHTTPRequestsTotal counts served HTTP requests, tagged status.
	MetricHTTPRequestsTotal = "sheetsql_http_requests_total"
	// MetricImportDuration samples end-to-end import latency in seconds.
	MetricImportDuration = "sheetsql_import_duration_seconds"
	// MetricHTTPRequestDuration samples HTTP handler latency in seconds.
	MetricHTTPRequestDuration = "sheetsql_http_request_duration_seconds"
)

// Labels carries dimension values for one observation.
type Labels map[string]string

// Backend receives counter increments and histogram samples.
// Implementations must be safe for concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Nop is a Backend that discards every observation.
type Nop struct{}

// IncCounter implements Backend.
func (Nop) IncCounter(string, float64, Labels) {}

// ObserveHistogram implements Backend.
func (Nop) ObserveHistogram(string, float64, Labels) {}

var _ Backend = Nop{}
