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

//go:build integration

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"context"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/product-catalog-tests/test/api"
)

// updateRejections are the invalid payloads that still make sense as a
// partial update. Missing fields are not an error on PUT and an empty body
// is a no-op.
func updateRejections() []string {
	var labels []string

	for _, label := range api.InvalidProducts().Labels() {
		if strings.HasPrefix(label, "missing") || label == "emptyBody" {
			continue
		}

		labels = append(labels, label)
	}

	return labels
}

var _ = Describe("Product Update", func() {
	var product *api.Product

	BeforeEach(func() {
		product = api.CreateProductWithCleanup(client, ctx, api.NewProductPayload().Build())
	})

	Context("When updating a product", func() {
		Describe("Given valid update parameters", func() {
			It("should update every field", func() {
				update := api.UpdatePayloads()["fullUpdate"]

				updated, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())

				Expect(updated.ID).To(Equal(product.ID))
				Expect(updated.Name).To(Equal(update["name"]))
				Expect(updated.Price.Equal(payloadPrice(update))).To(BeTrue(), "price %s", updated.Price)
				Expect(updated.Stock).To(BeNumerically("==", update["stock"]))
				Expect(updated.Category).To(Equal(update["category"]))
				Expect(updated.Description).To(Equal(update["description"]))
			})

			It("should merge a partial update onto the existing record", func() {
				update := api.UpdatePayloads()["partialUpdate"]

				updated, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())

				Expect(updated.ID).To(Equal(product.ID))
				Expect(updated.Name).To(Equal(update["name"]))
				Expect(updated.Price.Equal(payloadPrice(update))).To(BeTrue(), "price %s", updated.Price)
				Expect(updated.Category).To(Equal(product.Category))
				Expect(updated.Stock).To(Equal(product.Stock))
			})

			It("should update only the name", func() {
				update := api.UpdatePayloads()["nameOnly"]

				updated, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())

				Expect(updated.Name).To(Equal(update["name"]))
				Expect(updated.Price.Equal(product.Price)).To(BeTrue(), "price %s", updated.Price)
			})

			It("should update only the price", func() {
				update := api.UpdatePayloads()["priceOnly"]

				updated, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())

				Expect(updated.Price.Equal(payloadPrice(update))).To(BeTrue(), "price %s", updated.Price)
				Expect(updated.Name).To(Equal(product.Name))
			})

			It("should keep the original id when the payload carries one", func() {
				updated, err := client.UpdateProduct(ctx, product.ID, api.UpdatePayloads()["withIdAttempt"])
				Expect(err).NotTo(HaveOccurred())

				Expect(updated.ID).To(Equal(product.ID))
				Expect(updated.ID).NotTo(BeNumerically("==", 999999))
			})

			It("should drop unexpected fields", func() {
				update := api.UpdatePayloads()["withExtraFields"]

				resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID), api.WithJSONBody(update))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusOK))

				fields, err := resp.ProductFields()
				Expect(err).NotTo(HaveOccurred())
				Expect(fields).NotTo(HaveKey("unexpectedField"))
				Expect(fields).NotTo(HaveKey("admin"))
				Expect(fields).NotTo(HaveKey("password"))

				updated, err := resp.Product()
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Name).To(Equal(update["name"]))
			})

			It("should treat an empty body as a no-op", func() {
				updated, err := client.UpdateProduct(ctx, product.ID, map[string]interface{}{})
				Expect(err).NotTo(HaveOccurred())
				Expect(api.DiffProducts(product, updated)).To(BeEmpty())
			})

			It("should round prices to two decimal places", func() {
				updated, err := client.UpdateProduct(ctx, product.ID, api.UpdatePayloads()["decimal"])
				Expect(err).NotTo(HaveOccurred())
				Expect(updated).To(api.HavePrice("100.00"))
			})

			It("should preserve unicode characters in the name", func() {
				update := api.UpdatePayloads()["unicode"]

				updated, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Name).To(Equal(update["name"]))
			})

			It("should be idempotent", func() {
				update := api.NewProductPayload().Without("description").Build()

				first, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())

				second, err := client.UpdateProduct(ctx, product.ID, update)
				Expect(err).NotTo(HaveOccurred())

				Expect(api.DiffProducts(first, second)).To(BeEmpty())
			})
		})

		Describe("Given invalid update parameters", func() {
			for _, label := range updateRejections() {
				It("should return 400 for "+label, func() {
					resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
						api.WithJSONBody(api.InvalidProducts()[label]))
					Expect(err).NotTo(HaveOccurred())
					Expect(resp).To(api.HaveStatus(http.StatusBadRequest))
				})
			}

			for _, label := range api.MaliciousProducts().Labels() {
				It("should return 400 for "+label, func() {
					resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
						api.WithJSONBody(api.MaliciousProducts()[label]))
					Expect(err).NotTo(HaveOccurred())
					Expect(resp).To(api.HaveStatus(http.StatusBadRequest))
				})
			}

			It("should return 400 for malformed JSON", func() {
				resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
					api.WithRawBody(`{"name": "test", "price":}`),
					api.WithContentType("application/json"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusBadRequest))
			})

			It("should return 400 for the wrong content type", func() {
				resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
					api.WithRawBody("not json"),
					api.WithContentType("text/plain"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusBadRequest))
			})

			It("should return 413 for an oversized payload", func() {
				resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
					api.WithJSONBody(map[string]interface{}{"description": api.OversizedDescription()}))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusRequestEntityTooLarge))
			})
		})

		Describe("Given the product does not exist", func() {
			It("should return a not found error", func() {
				_, err := client.UpdateProduct(ctx, 999999, api.UpdatePayloads()["nameOnly"])
				Expect(err).To(HaveOccurred())
				Expect(api.IsStatus(err, http.StatusNotFound)).To(BeTrue(), err.Error())
			})
		})

		Describe("Given another product already has the name", func() {
			It("should return 409", func() {
				other := api.CreateProductWithCleanup(client, ctx, api.NewProductPayload().WithName(api.UniqueName("Another Product")).Build())

				resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
					api.WithJSONBody(map[string]interface{}{"name": other.Name}))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusConflict))
			})
		})
	})

	Context("When authenticating product updates", func() {
		Describe("Given no credentials", func() {
			It("should require authentication", func() {
				resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
					api.WithJSONBody(api.UpdatePayloads()["nameOnly"]),
					api.WithoutAuth())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusUnauthorized))
			})
		})

		Describe("Given rejected or malformed authorization", func() {
			It("should return 401 for every variant", func() {
				probes, err := api.RejectedAuthorizations()
				Expect(err).NotTo(HaveOccurred())

				for _, probe := range append(probes, api.MalformedAuthorizations()...) {
					resp, err := client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID),
						api.WithJSONBody(api.UpdatePayloads()["nameOnly"]),
						api.WithAuthorization(probe.Value))
					Expect(err).NotTo(HaveOccurred())
					Expect(resp).To(api.HaveStatus(http.StatusUnauthorized), probe.Label)
				}
			})
		})
	})

	Context("When using other HTTP methods on a product", func() {
		Describe("Given an unsupported method", func() {
			It("should return 405 with an Allow header for PATCH", func() {
				resp, err := client.Do(ctx, http.MethodPatch, client.Endpoints().Product(product.ID),
					api.WithJSONBody(map[string]interface{}{"name": "Patch Test"}))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusMethodNotAllowed))
				Expect(api.AllowedMethods(resp.Header)).NotTo(BeEmpty())
			})
		})

		Describe("Given an OPTIONS request", func() {
			It("should list PUT among the allowed methods", func() {
				resp, err := client.Do(ctx, http.MethodOptions, client.Endpoints().Product(product.ID))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).To(api.HaveStatus(http.StatusOK, http.StatusNoContent))
				Expect(resp).To(api.AllowMethods(http.MethodPut))
			})
		})
	})

	Context("When updating a product repeatedly", func() {
		Describe("Given rapid successive updates", func() {
			It("should leave the last update in place", func() {
				updates := api.RapidUpdates()

				for _, update := range updates {
					_, err := client.UpdateProduct(ctx, product.ID, update)
					Expect(err).NotTo(HaveOccurred())
				}

				final, err := client.GetProduct(ctx, product.ID)
				Expect(err).NotTo(HaveOccurred())

				last := updates[len(updates)-1]
				Expect(final.Name).To(Equal(last["name"]))
				Expect(final).To(api.HavePrice("30.00"))
			})
		})

		Describe("Given concurrent updates", func() {
			It("should let at least one update succeed", func() {
				updates := api.ConcurrentUpdates(config.ConcurrentRequests)

				outcomes := api.FanOut(ctx, len(updates), func(ctx context.Context, i int) (*api.Response, error) {
					return client.Do(ctx, http.MethodPut, client.Endpoints().Product(product.ID), api.WithJSONBody(updates[i]))
				}, api.WithMaxInFlight(config.MaxInFlight))

				Expect(api.TallyStatuses(outcomes)).To(HaveKeyWithValue(http.StatusOK, BeNumerically(">", 0)))
			})
		})
	})
})
