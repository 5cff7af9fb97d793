package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linesmerrill/uptime-api/databases"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID      string         `json:"requestId"`
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Status         int            `json:"status"`
	StartTime      time.Time      `json:"startTime"`
	TotalDuration  time.Duration  `json:"totalDuration"`
	StoreOps       []StoreOpTrace `json:"storeOps"`
	StoreTotalTime time.Duration  `json:"storeTotalTime"`
}

// StoreOpTrace tracks a single document store operation
type StoreOpTrace struct {
	Operation  string        `json:"operation"`
	Collection string        `json:"collection"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector keeps recent traces and per-route aggregates in memory
type MetricsCollector struct {
	mu             sync.RWMutex
	traces         []RequestTrace
	maxTraces      int
	routeMetrics   map[string]*RouteMetrics
	startedAt      time.Time
	totalRequests  int64
	totalErrors    int64
	totalStoreOps  int64
	totalStoreTime time.Duration
}

// NewMetricsCollector keeps at most maxTraces recent traces
func NewMetricsCollector(maxTraces int) *MetricsCollector {
	if maxTraces <= 0 {
		maxTraces = 1000
	}
	return &MetricsCollector{
		traces:       make([]RequestTrace, 0, maxTraces),
		maxTraces:    maxTraces,
		routeMetrics: make(map[string]*RouteMetrics),
		startedAt:    time.Now(),
	}
}

// RecordTrace folds one finished request into the aggregates
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.traces) >= mc.maxTraces {
		mc.traces = mc.traces[1:]
	}
	mc.traces = append(mc.traces, trace)

	routeKey := trace.Method + " " + trace.Path
	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  trace.Method,
			Path:    trace.Path,
			MinTime: trace.TotalDuration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += trace.TotalDuration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = trace.StartTime
	if trace.TotalDuration < metrics.MinTime {
		metrics.MinTime = trace.TotalDuration
	}
	if trace.TotalDuration > metrics.MaxTime {
		metrics.MaxTime = trace.TotalDuration
	}
	if trace.Status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}

	mc.totalRequests++
	mc.totalStoreOps += int64(len(trace.StoreOps))
	mc.totalStoreTime += trace.StoreTotalTime
}

// Traces returns up to limit of the most recent traces, oldest first
func (mc *MetricsCollector) Traces(limit int) []RequestTrace {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	start := len(mc.traces) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	out := make([]RequestTrace, len(mc.traces)-start)
	copy(out, mc.traces[start:])
	return out
}

// SlowestRoutes returns copies of the route aggregates, slowest average first
func (mc *MetricsCollector) SlowestRoutes() []RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	routes := make([]RouteMetrics, 0, len(mc.routeMetrics))
	for _, m := range mc.routeMetrics {
		routes = append(routes, *m)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].AvgTime == routes[j].AvgTime {
			return routes[i].Method+routes[i].Path < routes[j].Method+routes[j].Path
		}
		return routes[i].AvgTime > routes[j].AvgTime
	})
	return routes
}

// Summary returns overall totals since the collector started
func (mc *MetricsCollector) Summary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var errorRate float64
	if mc.totalRequests > 0 {
		errorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}
	var avgStoreTime time.Duration
	if mc.totalStoreOps > 0 {
		avgStoreTime = mc.totalStoreTime / time.Duration(mc.totalStoreOps)
	}
	return map[string]interface{}{
		"totalRequests":  mc.totalRequests,
		"totalErrors":    mc.totalErrors,
		"errorRate":      errorRate,
		"totalStoreOps":  mc.totalStoreOps,
		"totalStoreTime": mc.totalStoreTime.String(),
		"avgStoreTime":   avgStoreTime.String(),
		"startedAt":      mc.startedAt,
		"routeCount":     len(mc.routeMetrics),
		"traceCount":     len(mc.traces),
	}
}

type requestTraceContextKey struct{}

// requestTraceContext holds a trace being built during request processing
type requestTraceContext struct {
	trace *RequestTrace
	mu    sync.Mutex
}

// WithRequestTrace adds request trace to context
func WithRequestTrace(ctx context.Context, trace *RequestTrace) context.Context {
	return context.WithValue(ctx, requestTraceContextKey{}, &requestTraceContext{trace: trace})
}

// RecordStoreOpFromContext appends a store operation to the request's trace.
// Outside of a traced request it does nothing.
func RecordStoreOpFromContext(ctx context.Context, operation, collection string, duration time.Duration, err error) {
	reqTrace, _ := ctx.Value(requestTraceContextKey{}).(*requestTraceContext)
	if reqTrace == nil || reqTrace.trace == nil {
		return
	}

	op := StoreOpTrace{
		Operation:  operation,
		Collection: collection,
		Duration:   duration,
	}
	if err != nil {
		op.Error = err.Error()
	}
	reqTrace.mu.Lock()
	reqTrace.trace.StoreOps = append(reqTrace.trace.StoreOps, op)
	reqTrace.trace.StoreTotalTime += duration
	reqTrace.mu.Unlock()
}

// tracedStore times every operation of the wrapped store
type tracedStore struct {
	next databases.DocumentStore
}

// TraceStore wraps s so each operation shows up in the request trace
func TraceStore(s databases.DocumentStore) databases.DocumentStore {
	return &tracedStore{next: s}
}

func (t *tracedStore) Create(ctx context.Context, collection, key string, v interface{}) error {
	start := time.Now()
	err := t.next.Create(ctx, collection, key, v)
	RecordStoreOpFromContext(ctx, "create", collection, time.Since(start), err)
	return err
}

func (t *tracedStore) Read(ctx context.Context, collection, key string, v interface{}) error {
	start := time.Now()
	err := t.next.Read(ctx, collection, key, v)
	RecordStoreOpFromContext(ctx, "read", collection, time.Since(start), err)
	return err
}

func (t *tracedStore) Update(ctx context.Context, collection, key string, v interface{}) error {
	start := time.Now()
	err := t.next.Update(ctx, collection, key, v)
	RecordStoreOpFromContext(ctx, "update", collection, time.Since(start), err)
	return err
}

func (t *tracedStore) Delete(ctx context.Context, collection, key string) error {
	start := time.Now()
	err := t.next.Delete(ctx, collection, key)
	RecordStoreOpFromContext(ctx, "delete", collection, time.Since(start), err)
	return err
}

func (t *tracedStore) List(ctx context.Context, collection string) ([]string, error) {
	start := time.Now()
	keys, err := t.next.List(ctx, collection)
	RecordStoreOpFromContext(ctx, "list", collection, time.Since(start), err)
	return keys, err
}
