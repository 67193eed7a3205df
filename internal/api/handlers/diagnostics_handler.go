package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wayfarer-ai/planner/internal/audit"
	"github.com/wayfarer-ai/planner/internal/cache"
	"github.com/wayfarer-ai/planner/internal/metrics"
)

// DiagnosticsHandler serves the token-protected operator endpoints:
// GET /metrics, GET /metrics/prometheus, and GET /diagnostics. Grounded
// on internal/handlers/metrics.go's MetricsHandlers, ported from
// net/http to Fiber and extended with the audit trail and cache pool
// stats this service carries that the teacher's handler didn't.
type DiagnosticsHandler struct {
	collector *metrics.MetricsCollector
	audit     *audit.Logger
	cache     *cache.Cache
}

func NewDiagnosticsHandler(collector *metrics.MetricsCollector, auditLogger *audit.Logger, c *cache.Cache) *DiagnosticsHandler {
	return &DiagnosticsHandler{collector: collector, audit: auditLogger, cache: c}
}

// Metrics handles GET /metrics: the JSON snapshot of every counter,
// gauge, and histogram this process has recorded.
func (h *DiagnosticsHandler) Metrics(c *fiber.Ctx) error {
	if h.collector == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(inputInvalidResponse("metrics collector not available"))
	}
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	return c.JSON(h.collector.GetMetrics())
}

// Prometheus handles GET /metrics/prometheus, rendering the same
// snapshot as Prometheus text exposition format.
func (h *DiagnosticsHandler) Prometheus(c *fiber.Ctx) error {
	if h.collector == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(inputInvalidResponse("metrics collector not available"))
	}
	snapshot := h.collector.GetMetrics()

	var b strings.Builder
	writePrometheusMetric(&b, "wayfarer_http_requests_total", "counter", "Total number of HTTP requests", float64(snapshot.RequestCount))
	writePrometheusMetric(&b, "wayfarer_http_errors_total", "counter", "Total number of HTTP errors", float64(snapshot.ErrorCount))
	writePrometheusMetric(&b, "wayfarer_http_request_duration_seconds", "histogram", "HTTP request duration", snapshot.RequestDuration.Seconds())
	writePrometheusMetric(&b, "wayfarer_cache_hits_total", "counter", "Total number of cache hits", float64(snapshot.CacheHits))
	writePrometheusMetric(&b, "wayfarer_cache_misses_total", "counter", "Total number of cache misses", float64(snapshot.CacheMisses))
	writePrometheusMetric(&b, "wayfarer_goroutines", "gauge", "Current number of goroutines", float64(snapshot.GoroutineCount))

	for name, value := range snapshot.CustomCounters {
		writePrometheusMetric(&b, "wayfarer_"+name+"_total", "counter", "Custom counter: "+name, float64(value))
	}
	for name, value := range snapshot.CustomGauges {
		writePrometheusMetric(&b, "wayfarer_"+name, "gauge", "Custom gauge: "+name, value)
	}
	for name, hist := range snapshot.CustomHistograms {
		writePrometheusMetric(&b, "wayfarer_"+name+"_count", "counter", "Custom histogram count: "+name, float64(hist.Count))
		writePrometheusMetric(&b, "wayfarer_"+name+"_sum", "counter", "Custom histogram sum: "+name, hist.Sum)
	}
	for code, count := range snapshot.StatusCodes {
		writePrometheusMetricWithLabels(&b, "wayfarer_http_responses_total", "counter", "HTTP responses by status code",
			map[string]string{"status_code": strconv.Itoa(code)}, float64(count))
	}

	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	return c.SendString(b.String())
}

// DiagnosticsResponse is the body of GET /diagnostics.
type DiagnosticsResponse struct {
	RecentEvents []audit.Event            `json:"recent_events,omitempty"`
	Metrics      *metrics.MetricsSnapshot `json:"metrics,omitempty"`
	CachePool    *cachePoolStats          `json:"cache_pool,omitempty"`
}

type cachePoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

// Diagnostics handles GET /diagnostics: a combined operator view of
// recent request lifecycle events, the current metrics snapshot, and
// cache connection pool health.
func (h *DiagnosticsHandler) Diagnostics(c *fiber.Ctx) error {
	resp := &DiagnosticsResponse{}

	if h.audit != nil {
		limit := queryInt(c, "limit", 50)
		resp.RecentEvents = h.audit.Recent(limit)
	}
	if h.collector != nil {
		snapshot := h.collector.GetMetrics()
		resp.Metrics = &snapshot
	}
	if h.cache != nil {
		if stats := h.cache.Stats(); stats != nil {
			resp.CachePool = &cachePoolStats{
				Hits:       stats.Hits,
				Misses:     stats.Misses,
				Timeouts:   stats.Timeouts,
				TotalConns: stats.TotalConns,
				IdleConns:  stats.IdleConns,
			}
		}
	}

	return c.JSON(resp)
}

func writePrometheusMetric(b *strings.Builder, name, metricType, help string, value float64) {
	b.WriteString("# HELP " + name + " " + help + "\n")
	b.WriteString("# TYPE " + name + " " + metricType + "\n")
	b.WriteString(name + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n")
}

func writePrometheusMetricWithLabels(b *strings.Builder, name, metricType, help string, labels map[string]string, value float64) {
	b.WriteString("# HELP " + name + " " + help + "\n")
	b.WriteString("# TYPE " + name + " " + metricType + "\n")

	labelStr := ""
	if len(labels) > 0 {
		pairs := make([]string, 0, len(labels))
		for k, v := range labels {
			pairs = append(pairs, k+"=\""+v+"\"")
		}
		labelStr = "{" + strings.Join(pairs, ",") + "}"
	}
	b.WriteString(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n")
}
