/*
Copyright 2026 the Unikorn Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	metricsNamespace = "catalog_contract"

	responsesMetric = metricsNamespace + "_responses_total"
)

// Metrics records what the suite sent and what came back. It uses a private
// registry so nothing leaks into the default one.
type Metrics struct {
	registry        *prometheus.Registry
	duration        *prometheus.HistogramVec
	responses       *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Round trip time of requests sent to the catalog.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "responses_total",
			Help:      "Responses received from the catalog by status code.",
		}, []string{"method", "route", "status"}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transport_errors_total",
			Help:      "Requests that never produced a response.",
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(m.duration, m.responses, m.transportErrors)

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a completed round trip.
func (m *Metrics) Observe(method, route string, status int, duration time.Duration) {
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.responses.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveError records a request that failed before a response arrived.
func (m *Metrics) ObserveError(method, route string) {
	m.transportErrors.WithLabelValues(method, route).Inc()
}

// Push sends the collected metrics to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).Gatherer(m.registry)

	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}

	return nil
}

// StatusCounts totals responses by status code across every route.
func (m *Metrics) StatusCounts() (map[int]int, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	counts := map[int]int{}

	for _, family := range families {
		if family.GetName() != responsesMetric {
			continue
		}

		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() != "status" {
					continue
				}

				status, err := strconv.Atoi(label.GetValue())
				if err != nil {
					continue
				}

				counts[status] += int(metric.GetCounter().GetValue())
			}
		}
	}

	return counts, nil
}

// Summary renders StatusCounts as a single line, for example
// "responses: 200=12 404=3".
func (m *Metrics) Summary() string {
	counts, err := m.StatusCounts()
	if err != nil {
		return "responses: unavailable: " + err.Error()
	}

	statuses := make([]int, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}

	slices.Sort(statuses)

	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, fmt.Sprintf("%d=%d", status, counts[status]))
	}

	if len(parts) == 0 {
		return "responses: none"
	}

	return "responses: " + strings.Join(parts, " ")
}
