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
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi/catalog.yaml
var catalogSchema []byte

// CatalogSchema returns the embedded OpenAPI document describing the
// catalog contract.
func CatalogSchema() []byte {
	return catalogSchema
}

// ResponseValidator checks success responses against the OpenAPI document.
type ResponseValidator struct {
	router routers.Router
}

// NewResponseValidator loads the embedded document and binds it to baseURL
// so routes resolve against the deployment under test.
func NewResponseValidator(baseURL string) (*ResponseValidator, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(catalogSchema)
	if err != nil {
		return nil, fmt.Errorf("loading catalog schema: %w", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validating catalog schema: %w", err)
	}

	doc.Servers = openapi3.Servers{
		&openapi3.Server{URL: baseURL},
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("building schema router: %w", err)
	}

	return &ResponseValidator{
		router: router,
	}, nil
}

// Validate checks the response to req. Statuses the document does not
// describe are accepted, the suites assert those explicitly.
func (v *ResponseValidator) Validate(ctx context.Context, req *http.Request, status int, header http.Header, body []byte) error {
	route, pathParams, err := v.router.FindRoute(req)
	if err != nil {
		return fmt.Errorf("finding route for %s %s: %w", req.Method, req.URL.Path, err)
	}

	requestInput := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			ExcludeRequestBody: true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}

	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: requestInput,
		Status:                 status,
		Header:                 header,
		Options: &openapi3filter.Options{
			MultiError: true,
		},
	}

	responseInput.SetBodyBytes(body)

	if err := openapi3filter.ValidateResponse(ctx, responseInput); err != nil {
		return fmt.Errorf("%s %s returned %d: %w", req.Method, req.URL.Path, status, err)
	}

	return nil
}
