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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
	"github.com/shopspring/decimal"
	"github.com/spjmurray/go-util/pkg/set"
)

type statusMatcher struct {
	expected []int
}

// HaveStatus succeeds when a *Response has one of the given status codes.
// Failures print the body and trace ID so the request can be found in the
// service logs.
func HaveStatus(expected ...int) types.GomegaMatcher {
	return &statusMatcher{expected: expected}
}

func (m *statusMatcher) Match(actual interface{}) (bool, error) {
	resp, ok := actual.(*Response)
	if !ok || resp == nil {
		return false, fmt.Errorf("HaveStatus expects a non-nil *api.Response, got %T", actual)
	}

	return slices.Contains(m.expected, resp.StatusCode), nil
}

func (m *statusMatcher) FailureMessage(actual interface{}) string {
	resp, _ := actual.(*Response)

	return fmt.Sprintf("Expected status in %v, got %d\nbody: %s\ntrace ID: %s",
		m.expected, resp.StatusCode, truncate(string(resp.Body)), resp.TraceID)
}

func (m *statusMatcher) NegatedFailureMessage(actual interface{}) string {
	resp, _ := actual.(*Response)

	return fmt.Sprintf("Expected status not in %v, got %d\ntrace ID: %s",
		m.expected, resp.StatusCode, resp.TraceID)
}

// HavePrice compares a *Product price by value, so "100" matches "100.00".
func HavePrice(expected string) types.GomegaMatcher {
	want := decimal.RequireFromString(expected)

	return WithTransform(func(p *Product) string {
		return p.Price.String()
	}, Equal(want.String()))
}

// AllowedMethods parses an Allow header into upper case verbs.
func AllowedMethods(header http.Header) []string {
	var methods []string

	for _, value := range header.Values("Allow") {
		for _, method := range strings.Split(value, ",") {
			if method = strings.ToUpper(strings.TrimSpace(method)); method != "" {
				methods = append(methods, method)
			}
		}
	}

	return methods
}

// MissingMethods returns the verbs in required that the Allow header lacks.
func MissingMethods(header http.Header, required ...string) []string {
	missing := set.New[string](required...).Difference(set.New[string](AllowedMethods(header)...))

	var methods []string
	for method := range missing.All() {
		methods = append(methods, method)
	}

	slices.Sort(methods)

	return methods
}

// AllowMethods succeeds when a *Response's Allow header lists every verb.
func AllowMethods(required ...string) types.GomegaMatcher {
	return WithTransform(func(resp *Response) []string {
		return MissingMethods(resp.Header, required...)
	}, BeEmpty())
}
