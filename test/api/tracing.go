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
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const tracerName = "github.com/unikorn-cloud/product-catalog-tests/test/api"

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

// tracesPath is appended to a base OTLP endpoint, as the OTLP exporter
// environment convention requires.
const tracesPath = "/v1/traces"

// tracesURL turns OTEL_EXPORTER_OTLP_ENDPOINT, a base URL such as
// http://collector:4318, into the traces signal URL. A URL already naming
// the signal path is used as is.
func tracesURL(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")

	if strings.HasSuffix(endpoint, tracesPath) {
		return endpoint
	}

	return endpoint + tracesPath
}

// SetupTracing creates the tracer provider used by the client. Spans are
// always sampled so every request carries a real trace ID; they are only
// exported when OTEL_EXPORTER_OTLP_ENDPOINT is set.
func SetupTracing(ctx context.Context, config *TestConfig) (*sdktrace.TracerProvider, ShutdownFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.MetricsJob),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating trace resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if config.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(tracesURL(config.OTLPEndpoint)),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, tp.Shutdown, nil
}
