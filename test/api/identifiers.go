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
)

// IdentifierProbe is a product id path segment in wire form.
type IdentifierProbe struct {
	Label   string
	Segment string
}

// MalformedIdentifiers returns ids that break the numeric grammar. Every
// verb taking an id must answer these with 400.
//
// Segments that the probe is about, such as percent escapes or traversal
// sequences, are kept verbatim. Everything else is path escaped so that
// characters like '#' and '?' reach the service instead of being read as
// URL delimiters.
func MalformedIdentifiers() []IdentifierProbe {
	return []IdentifierProbe{
		{Label: "alphabetic", Segment: "invalid-id"},
		{Label: "alphanumeric", Segment: "abc123"},
		{Label: "symbols", Segment: url.PathEscape("@#$%")},
		{Label: "symbol run", Segment: url.PathEscape("@#$%^&*()")},
		{Label: "JSON array", Segment: url.PathEscape(`["1"]`)},
		{Label: "JSON object", Segment: url.PathEscape(`{"id":1}`)},
		{Label: "SQL injection", Segment: url.PathEscape("1'; DROP TABLE products; --")},
		{Label: "script tag", Segment: url.PathEscape(`<script>alert("xss")</script>`)},
		{Label: "URL encoded script", Segment: "%3Cscript%3E"},
		{Label: "path traversal", Segment: "../../../etc/passwd"},
		{Label: "encoded path traversal", Segment: "..%2F..%2F..%2Fetc%2Fpasswd"},
		{Label: "null byte", Segment: "123%00.txt"},
		{Label: "unicode", Segment: url.PathEscape("测试")},
		{Label: "oversized", Segment: strings.Repeat("a", 10000)},
		{Label: "negative", Segment: "-1"},
		{Label: "decimal", Segment: "123.456"},
	}
}

// MissingIdentifiers returns well formed ids that should not exist. Zero is
// included, the catalog treats it as a valid id with no product.
func MissingIdentifiers() []int64 {
	return []int64{
		999999,
		MaxSafeInteger,
		0,
	}
}

// QueryProbe is a query string in wire form.
type QueryProbe struct {
	Label    string
	RawQuery string
}

// InvalidPaginationQueries returns list queries that must be rejected with
// 400. maxPageSize is the smallest page_size the service refuses.
func InvalidPaginationQueries(maxPageSize int) []QueryProbe {
	return []QueryProbe{
		{Label: "page zero", RawQuery: "page=0&page_size=5"},
		{Label: "negative values", RawQuery: "page=-1&page_size=-5"},
		{Label: "non-numeric values", RawQuery: "page=abc&page_size=xyz"},
		{Label: "oversized page_size", RawQuery: fmt.Sprintf("page=1&page_size=%d", maxPageSize)},
		{Label: "array shaped params", RawQuery: "page[]=1&page_size[foo]=bar"},
		{Label: "object shaped param", RawQuery: "page=" + url.QueryEscape(`{"num":1}`)},
	}
}

// InvalidFilterQueries returns filter and sort queries that must be
// rejected with 400.
func InvalidFilterQueries() []QueryProbe {
	return []QueryProbe{
		{Label: "script in category", RawQuery: "category=" + url.QueryEscape("<script>")},
		{Label: "unknown sort token", RawQuery: "sort=foo_invalid"},
	}
}

// IgnoredDeleteQueries returns query strings a DELETE must ignore.
func IgnoredDeleteQueries() []QueryProbe {
	return []QueryProbe{
		{Label: "confirmation flags", RawQuery: "force=true&confirm=yes"},
		{Label: "SQL shaped key", RawQuery: url.QueryEscape("'; DROP TABLE products; --") + "=1"},
	}
}

// PathProbe is a full request path in wire form.
type PathProbe struct {
	Label string
	Path  string
}

// UnroutablePaths returns paths below the collection that must not match
// the single product route, and so answer 404.
func UnroutablePaths(existingID int64) []PathProbe {
	return []PathProbe{
		{Label: "all keyword", Path: productsPath + "/all"},
		{Label: "wildcard", Path: productsPath + "/*"},
		{Label: "empty id segment", Path: productsPath + "/"},
		{Label: "extra segments", Path: fmt.Sprintf("%s/%d/extra/path", productsPath, existingID)},
	}
}
