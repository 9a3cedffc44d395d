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
	"fmt"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

const (
	healthPath   = "/health"
	productsPath = "/api/products"

	// Route labels used for metrics and span names.
	RouteHealth    = healthPath
	RouteProducts  = productsPath
	RouteProduct   = productsPath + "/{id}"
	RouteUnmatched = "unmatched"
)

// DefaultPageLimit is the page size the catalog reports, whatever page_size asked for.
const DefaultPageLimit = 10

// Endpoints contains all API endpoint patterns.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Health endpoint.
func (e *Endpoints) Health() string {
	return healthPath
}

// Product collection endpoint.
func (e *Endpoints) Products() string {
	return productsPath
}

// Product returns the path of a single product by numeric id.
func (e *Endpoints) Product(id int64) string {
	return fmt.Sprintf("%s/%d", productsPath, id)
}

// ProductByString escapes an arbitrary string into a single path segment.
func (e *Endpoints) ProductByString(id string) string {
	return productsPath + "/" + url.PathEscape(id)
}

// ProductRaw appends segment verbatim. It is meant for identifier probes
// that are already in wire form, such as "%3Cscript%3E" or "../../etc".
func (e *Endpoints) ProductRaw(segment string) string {
	return productsPath + "/" + segment
}

// RouteTemplate maps a concrete path onto the route it targets, keeping
// metric label cardinality bounded.
func RouteTemplate(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	switch {
	case path == healthPath:
		return RouteHealth
	case path == productsPath:
		return RouteProducts
	case strings.HasPrefix(path, productsPath+"/"):
		rest := strings.TrimPrefix(path, productsPath+"/")
		if rest != "" && !strings.Contains(rest, "/") {
			return RouteProduct
		}
	}

	return RouteUnmatched
}

// ListProductsParams are the typed query parameters of GET /api/products.
// Nil fields are omitted from the query.
type ListProductsParams struct {
	Page     *int
	PageSize *int
	Category *string
	Sort     *string
}

// Query form-encodes the parameters the way a generated client would.
func (p *ListProductsParams) Query() (url.Values, error) {
	values := url.Values{}

	if p == nil {
		return values, nil
	}

	fields := []struct {
		name  string
		value interface{}
	}{
		{"page", derefInt(p.Page)},
		{"page_size", derefInt(p.PageSize)},
		{"category", derefString(p.Category)},
		{"sort", derefString(p.Sort)},
	}

	for _, field := range fields {
		if field.value == nil {
			continue
		}

		queryFrag, err := runtime.StyleParamWithLocation("form", true, field.name, runtime.ParamLocationQuery, field.value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", field.name, err)
		}

		parsed, err := url.ParseQuery(queryFrag)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", field.name, err)
		}

		for k, v := range parsed {
			for _, v2 := range v {
				values.Add(k, v2)
			}
		}
	}

	return values, nil
}

// ProductsWithQuery returns the collection path with an encoded query.
func (e *Endpoints) ProductsWithQuery(params *ListProductsParams) (string, error) {
	values, err := params.Query()
	if err != nil {
		return "", err
	}

	if len(values) == 0 {
		return productsPath, nil
	}

	return productsPath + "?" + values.Encode(), nil
}

func derefInt(v *int) interface{} {
	if v == nil {
		return nil
	}

	return *v
}

func derefString(v *string) interface{} {
	if v == nil {
		return nil
	}

	return *v
}

// PageCount is the number of pages needed to hold total items.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}

	return (total + pageSize - 1) / pageSize
}
