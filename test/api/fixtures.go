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
	"context"
	_ "embed"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// MaxSafeInteger is the largest integer a JSON number holds exactly.
const MaxSafeInteger int64 = 1<<53 - 1

// OversizedPayloadBytes is the description length used to provoke a 413.
const OversizedPayloadBytes = 10_000_000

//go:embed fixtures/products.yaml
var productFixtures []byte

// FixtureSet maps a scenario label onto a payload. Every accessor returns a
// freshly decoded set, so callers may modify what they get.
type FixtureSet map[string]map[string]interface{}

// Labels returns the labels in a stable order.
func (s FixtureSet) Labels() []string {
	return slices.Sorted(maps.Keys(s))
}

type fixtureCatalog struct {
	Valid      FixtureSet `yaml:"valid"`
	Invalid    FixtureSet `yaml:"invalid"`
	Malicious  FixtureSet `yaml:"malicious"`
	Updates    FixtureSet `yaml:"updates"`
	Categories []string   `yaml:"categories"`
}

func loadFixtureCatalog() (*fixtureCatalog, error) {
	catalog := &fixtureCatalog{}
	if err := yaml.Unmarshal(productFixtures, catalog); err != nil {
		return nil, fmt.Errorf("decoding product fixtures: %w", err)
	}

	return catalog, nil
}

// mustLoadFixtureCatalog panics because the catalog is embedded at build
// time, a decode failure cannot be fixed at run time.
func mustLoadFixtureCatalog() *fixtureCatalog {
	catalog, err := loadFixtureCatalog()
	if err != nil {
		panic(err)
	}

	return catalog
}

func uniquifyNames(set FixtureSet) FixtureSet {
	for _, payload := range set {
		if name, ok := payload["name"].(string); ok {
			payload["name"] = UniqueName(name)
		}
	}

	return set
}

// ValidProducts returns payloads the service must accept with 201.
func ValidProducts() FixtureSet {
	return uniquifyNames(mustLoadFixtureCatalog().Valid)
}

// InvalidProducts returns payloads that each break one validation rule.
func InvalidProducts() FixtureSet {
	set := mustLoadFixtureCatalog().Invalid

	set["missingName"] = NewProductPayload().Without("name").Build()
	set["missingPrice"] = NewProductPayload().Without("price").Build()
	set["missingCategory"] = NewProductPayload().Without("category").Build()
	set["tooLongName"] = NewProductPayload().WithName(strings.Repeat("a", MaxNameLength+1)).Build()
	set["tooLongDescription"] = NewProductPayload().WithDescription(strings.Repeat("a", MaxDescriptionLength+1)).Build()
	set["maxSafeIntegerStock"] = NewProductPayload().WithStock(MaxSafeInteger).Build()
	set["emptyBody"] = map[string]interface{}{}

	return set
}

// MaliciousProducts returns SQL and script shaped payloads the service must
// reject rather than store.
func MaliciousProducts() FixtureSet {
	return mustLoadFixtureCatalog().Malicious
}

// UpdatePayloads returns the PUT bodies used by the update suite.
func UpdatePayloads() FixtureSet {
	return uniquifyNames(mustLoadFixtureCatalog().Updates)
}

// Categories returns the category names used when seeding products.
func Categories() []string {
	return mustLoadFixtureCatalog().Categories
}

// ConcurrentUpdates returns n distinct updates to race against one product.
func ConcurrentUpdates(n int) []map[string]interface{} {
	updates := make([]map[string]interface{}, n)
	for i := range updates {
		updates[i] = map[string]interface{}{
			"name":  UniqueName(fmt.Sprintf("Concurrent Update %d", i)),
			"price": 10 + i,
		}
	}

	return updates
}

// RapidUpdates returns updates applied back to back; the last one must win.
func RapidUpdates() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": UniqueName("Update 1"), "price": 10.00},
		{"name": UniqueName("Update 2"), "price": 20.00},
		{"name": UniqueName("Update 3"), "price": 30.00},
	}
}

// OversizedDescription is large enough that the service must answer 413.
func OversizedDescription() string {
	return strings.Repeat("x", OversizedPayloadBytes)
}

// ProductPayloadBuilder builds product payloads for testing.
type ProductPayloadBuilder struct {
	payload map[string]interface{}
}

// NewProductPayload creates a valid payload with a run-unique name.
func NewProductPayload() *ProductPayloadBuilder {
	return &ProductPayloadBuilder{
		payload: map[string]interface{}{
			"name":        UniqueName("Test Product"),
			"price":       29.99,
			"stock":       100,
			"category":    "Electronics",
			"description": "A test product for API testing",
		},
	}
}

// WithName sets the product name.
func (b *ProductPayloadBuilder) WithName(name string) *ProductPayloadBuilder {
	b.payload["name"] = name
	return b
}

// WithPrice sets the product price.
func (b *ProductPayloadBuilder) WithPrice(price float64) *ProductPayloadBuilder {
	b.payload["price"] = price
	return b
}

// WithStock sets the stock level.
func (b *ProductPayloadBuilder) WithStock(stock int64) *ProductPayloadBuilder {
	b.payload["stock"] = stock
	return b
}

// WithCategory sets the product category.
func (b *ProductPayloadBuilder) WithCategory(category string) *ProductPayloadBuilder {
	b.payload["category"] = category
	return b
}

// WithDescription sets the product description.
func (b *ProductPayloadBuilder) WithDescription(desc string) *ProductPayloadBuilder {
	b.payload["description"] = desc
	return b
}

// With sets any field, including ones the service should ignore or reject.
func (b *ProductPayloadBuilder) With(field string, value interface{}) *ProductPayloadBuilder {
	b.payload[field] = value
	return b
}

// Without removes a field.
func (b *ProductPayloadBuilder) Without(field string) *ProductPayloadBuilder {
	delete(b.payload, field)
	return b
}

// Build returns a copy of the completed payload.
func (b *ProductPayloadBuilder) Build() map[string]interface{} {
	return maps.Clone(b.payload)
}

// CreateProductWithCleanup creates a product and schedules its deletion.
// The cleanup tolerates 404 because many specs delete the product themselves.
func CreateProductWithCleanup(client *APIClient, ctx context.Context, payload map[string]interface{}) *Product {
	product, err := client.CreateProduct(ctx, payload)
	Expect(err).NotTo(HaveOccurred(), "creating fixture product")

	GinkgoWriter.Printf("Created product with ID: %d\n", product.ID)

	// Schedule cleanup - this runs whether the test passes or fails so we don't need to clean up manually
	DeferCleanup(func() {
		deleteErr := client.DeleteProduct(ctx, product.ID)

		switch {
		case deleteErr == nil:
			GinkgoWriter.Printf("Successfully deleted product: %d\n", product.ID)
		case IsStatus(deleteErr, http.StatusNotFound):
			GinkgoWriter.Printf("Product %d already deleted\n", product.ID)
		default:
			GinkgoWriter.Printf("Warning: Failed to delete product %d: %v\n", product.ID, deleteErr)
		}
	})

	return product
}

// SeedProducts creates n products through the setup pacer so seeding never
// trips the rate limit a spec is about to probe.
func SeedProducts(client *APIClient, ctx context.Context, pacer *rate.Limiter, n int, prefix string) []*Product {
	products := make([]*Product, 0, n)

	for i := range n {
		Expect(pacer.Wait(ctx)).To(Succeed())

		products = append(products, CreateProductWithCleanup(client, ctx,
			NewProductPayload().
				WithName(UniqueName(fmt.Sprintf("%s %d", prefix, i))).
				WithPrice(10.00+float64(i)).
				WithStock(10).
				WithCategory("Test").
				Build()))
	}

	return products
}
