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

//nolint:revive // naming conventions acceptable in test code
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// StatusError is returned by the typed helpers when the service answers
// with a status other than the one the contract promises.
type StatusError struct {
	Method   string
	Path     string
	Expected int
	Actual   int
	Body     string
	TraceID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code: expected %d, got %d, body: %s (trace ID: %s)",
		e.Method, e.Path, e.Expected, e.Actual, e.Body, e.TraceID)
}

// IsStatus reports whether err is a StatusError carrying the given actual status.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Actual == status
	}

	return false
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	TraceID    string

	request *http.Request
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("unmarshaling response (status %d, trace ID %s): %w", r.StatusCode, r.TraceID, err)
	}

	return nil
}

// Envelope decodes a single product envelope.
func (r *Response) Envelope() (*ProductEnvelope, error) {
	var envelope ProductEnvelope
	if err := r.JSON(&envelope); err != nil {
		return nil, err
	}

	if envelope.Product == nil {
		return nil, fmt.Errorf("%w (status %d, trace ID %s)", ErrMissingEnvelope, r.StatusCode, r.TraceID)
	}

	return &envelope, nil
}

// Product decodes the product inside a single product envelope.
func (r *Response) Product() (*Product, error) {
	envelope, err := r.Envelope()
	if err != nil {
		return nil, err
	}

	return envelope.Product, nil
}

// ProductFields returns the raw members of the enveloped product, used to
// prove that fields the service should drop are absent.
func (r *Response) ProductFields() (map[string]json.RawMessage, error) {
	var envelope struct {
		Product map[string]json.RawMessage `json:"product"`
	}

	if err := r.JSON(&envelope); err != nil {
		return nil, err
	}

	if envelope.Product == nil {
		return nil, fmt.Errorf("%w (status %d, trace ID %s)", ErrMissingEnvelope, r.StatusCode, r.TraceID)
	}

	return envelope.Product, nil
}

// List decodes a product list envelope.
func (r *Response) List() (*ProductList, error) {
	var list ProductList
	if err := r.JSON(&list); err != nil {
		return nil, err
	}

	return &list, nil
}

type APIClient struct {
	baseURL   string
	doer      HTTPDoer
	authToken string
	config    *TestConfig
	endpoints *Endpoints
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *Metrics
	validator *ResponseValidator
}

// ClientOption customises an APIClient.
type ClientOption func(*APIClient)

// WithHTTPDoer replaces the transport.
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(c *APIClient) {
		c.doer = doer
	}
}

// WithLogger replaces the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithTracerProvider sets where request spans are created.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *APIClient) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithMetrics records every round trip into m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *APIClient) {
		c.metrics = m
	}
}

// WithResponseValidator overrides OpenAPI response validation, nil disables it.
func WithResponseValidator(v *ResponseValidator) ClientOption {
	return func(c *APIClient) {
		c.validator = v
	}
}

func NewAPIClientWithConfig(config *TestConfig, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		doer: &http.Client{
			Timeout: config.RequestTimeout,
		},
		authToken: config.AuthToken,
		config:    config,
		endpoints: NewEndpoints(),
		logger:    NewLogger(config, ginkgo.GinkgoWriter),
		tracer:    sdktrace.NewTracerProvider().Tracer(tracerName),
	}

	if config.OpenAPIValidation {
		validator, err := NewResponseValidator(c.baseURL)
		if err != nil {
			c.logger.Warn("openapi validation disabled", "error", err)
		} else {
			c.validator = validator
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoints exposes the path builders the client uses.
func (c *APIClient) Endpoints() *Endpoints {
	return c.endpoints
}

func (c *APIClient) SetAuthToken(token string) {
	c.authToken = token
}

type requestOptions struct {
	body          []byte
	contentType   string
	headers       map[string]string
	authorization *string
	omitAuth      bool
	query         url.Values
	rawQuery      string
	err           error
}

// RequestOption customises a single request sent with Do.
type RequestOption func(*requestOptions)

// WithJSONBody marshals v as the request body.
func WithJSONBody(v interface{}) RequestOption {
	return func(o *requestOptions) {
		body, err := json.Marshal(v)
		if err != nil {
			o.err = fmt.Errorf("marshaling request body: %w", err)
			return
		}

		o.body = body
	}
}

// WithRawBody sends body exactly as given, for malformed JSON probes.
func WithRawBody(body string) RequestOption {
	return func(o *requestOptions) {
		o.body = []byte(body)
	}
}

// WithContentType overrides the Content-Type header. It is sent even when
// the request has no body.
func WithContentType(contentType string) RequestOption {
	return func(o *requestOptions) {
		o.contentType = contentType
	}
}

// WithHeader adds an arbitrary request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}

		o.headers[key] = value
	}
}

// WithAuthorization sends value as the Authorization header verbatim,
// including the empty string.
func WithAuthorization(value string) RequestOption {
	return func(o *requestOptions) {
		o.authorization = &value
	}
}

// WithoutAuth omits the Authorization header.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.omitAuth = true
	}
}

// WithQuery adds encoded query parameters.
func WithQuery(values url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}

		for k, v := range values {
			o.query[k] = append(o.query[k], v...)
		}
	}
}

// WithRawQuery appends query verbatim, for probes such as "page[]=1".
func WithRawQuery(query string) RequestOption {
	return func(o *requestOptions) {
		o.rawQuery = query
	}
}

func (o *requestOptions) buildURL(baseURL, path string) string {
	var queries []string

	if len(o.query) > 0 {
		queries = append(queries, o.query.Encode())
	}

	if o.rawQuery != "" {
		queries = append(queries, o.rawQuery)
	}

	fullURL := baseURL + path

	if len(queries) == 0 {
		return fullURL
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return fullURL + separator + strings.Join(queries, "&")
}

// logError logs a transport error with trace context.
func (c *APIClient) logError(method, path string, duration time.Duration, traceID string, err error, context string) {
	c.logger.Error(context, "method", method, "path", truncate(path), "duration", duration, "traceID", traceID, "error", err)
	c.logTraceContext(traceID)
}

// logUnexpectedStatus logs an unexpected HTTP status code.
func (c *APIClient) logUnexpectedStatus(method, path string, expectedStatus, actualStatus int, body, traceID string) {
	c.logger.Warn("unexpected status", "method", method, "path", truncate(path), "expected", expectedStatus, "got", actualStatus, "body", truncate(body), "traceID", traceID)
	c.logTraceContext(traceID)
}

// logTraceContext logs the trace context information.
func (c *APIClient) logTraceContext(traceID string) {
	c.logger.Info(fmt.Sprintf("TRACE CONTEXT: Use trace ID '%s' to search logs for this request", traceID))
}

const maxLoggedLength = 512

func truncate(s string) string {
	if len(s) <= maxLoggedLength {
		return s
	}

	return s[:maxLoggedLength] + fmt.Sprintf("...(%d bytes)", len(s))
}

// Do sends a request and returns the response whatever its status. Only a
// transport failure is an error; scenarios assert the status themselves.
//
//nolint:cyclop // test code complexity is acceptable
func (c *APIClient) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	options := &requestOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.err != nil {
		return nil, options.err
	}

	route := RouteTemplate(path)

	ctx, span := c.tracer.Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	traceID := span.SpanContext().TraceID().String()

	var body io.Reader
	if options.body != nil {
		body = bytes.NewReader(options.body)
	}

	req, err := http.NewRequestWithContext(ctx, method, options.buildURL(c.baseURL, path), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "creating request")

		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Add W3C Trace Context headers
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	if req.Header.Get("Tracestate") == "" {
		req.Header.Set("Tracestate", "test-automation=ginkgo")
	}

	switch {
	case options.contentType != "":
		req.Header.Set("Content-Type", options.contentType)
	case options.body != nil:
		req.Header.Set("Content-Type", "application/json")
	}

	switch {
	case options.omitAuth:
	case options.authorization != nil:
		req.Header["Authorization"] = []string{*options.authorization}
	case c.authToken != "":
		req.Header.Set("Authorization", BearerToken(c.authToken))
	}

	for key, value := range options.headers {
		req.Header.Set(key, value)
	}

	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", truncate(path)),
	)

	start := time.Now()
	resp, err := c.doer.Do(req)
	duration := time.Since(start)

	if err != nil {
		if c.metrics != nil {
			c.metrics.ObserveError(method, route)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "http request failed")
		c.logError(method, path, duration, traceID, err, "http request failed")

		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		c.logError(method, path, duration, traceID, err, "reading response body")

		return nil, fmt.Errorf("reading response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	}

	if c.metrics != nil {
		c.metrics.Observe(method, route, resp.StatusCode, duration)
	}

	if c.config.LogRequests {
		c.logger.Info("request", "method", method, "path", truncate(path), "status", resp.StatusCode, "duration", duration, "traceID", traceID)
	}

	if c.config.LogResponses && len(respBody) > 0 {
		c.logger.Info("response body", "method", method, "path", truncate(path), "body", truncate(string(respBody)))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
		Duration:   duration,
		TraceID:    traceID,
		request:    req,
	}, nil
}

// ExpectStatus returns a StatusError unless resp has the expected status.
func (c *APIClient) ExpectStatus(resp *Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}

	method, path := "", ""
	if resp.request != nil {
		method, path = resp.request.Method, resp.request.URL.RequestURI()
	}

	c.logUnexpectedStatus(method, path, expected, resp.StatusCode, string(resp.Body), resp.TraceID)

	return &StatusError{
		Method:   method,
		Path:     path,
		Expected: expected,
		Actual:   resp.StatusCode,
		Body:     string(resp.Body),
		TraceID:  resp.TraceID,
	}
}

// ValidateSchema checks resp against the OpenAPI document when validation
// is enabled.
func (c *APIClient) ValidateSchema(ctx context.Context, resp *Response) error {
	if c.validator == nil || resp.request == nil {
		return nil
	}

	if err := c.validator.Validate(ctx, resp.request, resp.StatusCode, resp.Header, resp.Body); err != nil {
		c.logger.Warn("schema violation", "traceID", resp.TraceID, "error", err)
		return err
	}

	return nil
}

// doExpect is the typed helpers' round trip: send, require the expected
// status and validate the body shape.
func (c *APIClient) doExpect(ctx context.Context, method, path string, expected int, opts ...RequestOption) (*Response, error) {
	resp, err := c.Do(ctx, method, path, opts...)
	if err != nil {
		return nil, err
	}

	if err := c.ExpectStatus(resp, expected); err != nil {
		return resp, err
	}

	if err := c.ValidateSchema(ctx, resp); err != nil {
		return resp, err
	}

	return resp, nil
}

// Health calls the health endpoint with method, which must answer 200.
func (c *APIClient) Health(ctx context.Context, method string) (*Response, error) {
	resp, err := c.doExpect(ctx, method, c.endpoints.Health(), http.StatusOK, WithoutAuth())
	if err != nil {
		return resp, fmt.Errorf("checking health: %w", err)
	}

	return resp, nil
}

// ListProducts fetches a page of products.
func (c *APIClient) ListProducts(ctx context.Context, params *ListProductsParams) (*ProductList, error) {
	path, err := c.endpoints.ProductsWithQuery(params)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	resp, err := c.doExpect(ctx, http.MethodGet, path, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	list, err := resp.List()
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	if err := ValidateProductList(list); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	return list, nil
}

// GetProduct retrieves a single product.
func (c *APIClient) GetProduct(ctx context.Context, id int64) (*Product, error) {
	resp, err := c.doExpect(ctx, http.MethodGet, c.endpoints.Product(id), http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}

	return decodeProduct(resp, "getting product")
}

// CreateProduct creates a product from an arbitrary payload.
func (c *APIClient) CreateProduct(ctx context.Context, payload map[string]interface{}) (*Product, error) {
	resp, err := c.doExpect(ctx, http.MethodPost, c.endpoints.Products(), http.StatusCreated, WithJSONBody(payload))
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return decodeProduct(resp, "creating product")
}

// UpdateProduct applies payload to an existing product.
func (c *APIClient) UpdateProduct(ctx context.Context, id int64, payload map[string]interface{}) (*Product, error) {
	resp, err := c.doExpect(ctx, http.MethodPut, c.endpoints.Product(id), http.StatusOK, WithJSONBody(payload))
	if err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}

	return decodeProduct(resp, "updating product")
}

// DeleteProduct deletes a product, which must answer 204. A 200 echoing
// the deleted product is accepted too.
func (c *APIClient) DeleteProduct(ctx context.Context, id int64) error {
	expected := http.StatusNoContent

	resp, err := c.Do(ctx, http.MethodDelete, c.endpoints.Product(id))
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		expected = http.StatusOK
	}

	if err := c.ExpectStatus(resp, expected); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	if err := c.ValidateSchema(ctx, resp); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	return nil
}

func decodeProduct(resp *Response, operation string) (*Product, error) {
	product, err := resp.Product()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if err := ValidateProduct(product); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	return product, nil
}
