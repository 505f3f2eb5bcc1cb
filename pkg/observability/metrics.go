// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

// Metrics records tool-execution observations. A nil implementation is
// valid and drops everything.
type Metrics interface {
	RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error)
	RecordIngestRun(ctx context.Context, pages, uniqueDocs int, err error)
}

// PrometheusMetrics implements Metrics on otel instruments backed by a
// Prometheus exporter.
type PrometheusMetrics struct {
	toolDuration    metric.Float64Histogram
	toolCallsTotal  metric.Int64Counter
	toolErrorsTotal metric.Int64Counter

	ingestPages    metric.Int64Counter
	ingestDocs     metric.Int64Counter
	ingestFailures metric.Int64Counter
}

// InitMetrics wires a Prometheus exporter into an otel meter provider
// and builds the lexgate instruments. Disabled config yields a no-op.
func InitMetrics(cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)
	meter := meterProvider.Meter("lexgate")

	m := &PrometheusMetrics{}

	if m.toolDuration, err = meter.Float64Histogram(
		"lexgate_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	if m.toolCallsTotal, err = meter.Int64Counter(
		"lexgate_tool_calls_total",
		metric.WithDescription("Total tool calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	if m.toolErrorsTotal, err = meter.Int64Counter(
		"lexgate_tool_errors_total",
		metric.WithDescription("Total tool errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	if m.ingestPages, err = meter.Int64Counter(
		"lexgate_ingest_pages_fetched_total",
		metric.WithDescription("Total search pages fetched by ingestion runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create ingest pages counter: %w", err)
	}

	if m.ingestDocs, err = meter.Int64Counter(
		"lexgate_ingest_documents_total",
		metric.WithDescription("Total unique documents collected by ingestion runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create ingest documents counter: %w", err)
	}

	if m.ingestFailures, err = meter.Int64Counter(
		"lexgate_ingest_failures_total",
		metric.WithDescription("Total failed ingestion runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create ingest failures counter: %w", err)
	}

	return m, nil
}

type MetricsConfig struct {
	Enabled bool
}

func (m *PrometheusMetrics) RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error) {
	if m == nil || m.toolDuration == nil || m.toolCallsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", tool),
	}

	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil && m.toolErrorsTotal != nil {
		m.toolErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *PrometheusMetrics) RecordIngestRun(ctx context.Context, pages, uniqueDocs int, err error) {
	if m == nil || m.ingestPages == nil {
		return
	}

	m.ingestPages.Add(ctx, int64(pages))
	m.ingestDocs.Add(ctx, int64(uniqueDocs))

	if err != nil && m.ingestFailures != nil {
		m.ingestFailures.Add(ctx, 1)
	}
}

func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}
