package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/linesmerrill/uptime-api/api"
	"github.com/linesmerrill/uptime-api/models"
)

// formatRouteMetrics converts duration fields to milliseconds for JSON serialization
func formatRouteMetrics(routes []api.RouteMetrics) []map[string]interface{} {
	result := make([]map[string]interface{}, len(routes))
	for i, route := range routes {
		result[i] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"minTime":     route.MinTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}
	return result
}

// formatTraces converts trace durations to milliseconds
func formatTraces(traces []api.RequestTrace) []map[string]interface{} {
	result := make([]map[string]interface{}, len(traces))
	for i, trace := range traces {
		storeOps := make([]map[string]interface{}, len(trace.StoreOps))
		for j, op := range trace.StoreOps {
			storeOps[j] = map[string]interface{}{
				"operation":  op.Operation,
				"collection": op.Collection,
				"duration":   op.Duration.Milliseconds(),
				"error":      op.Error,
			}
		}
		result[i] = map[string]interface{}{
			"requestId":      trace.RequestID,
			"method":         trace.Method,
			"path":           trace.Path,
			"status":         trace.Status,
			"startTime":      trace.StartTime,
			"totalDuration":  trace.TotalDuration.Milliseconds(),
			"storeOps":       storeOps,
			"storeTotalTime": trace.StoreTotalTime.Milliseconds(),
		}
	}
	return result
}

// MetricsHandler handles metrics dashboard requests
type MetricsHandler struct {
	Metrics *api.MetricsCollector
}

// Handle returns the summary, the routes slowest first and the most recent traces
func (m MetricsHandler) Handle(ctx context.Context, req models.Request) models.Response {
	if req.Method != http.MethodGet {
		return api.MethodNotAllowed()
	}

	limit := 20 // Default: 20 traces
	if limitStr := req.Query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	return api.OK(map[string]interface{}{
		"summary":      m.Metrics.Summary(),
		"routes":       formatRouteMetrics(m.Metrics.SlowestRoutes()),
		"recentTraces": formatTraces(m.Metrics.Traces(limit)),
	})
}
