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

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unikorn-cloud/product-catalog-tests/test/api"
)

const fakeToken = "token"

type fakeProduct struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Stock       int64   `json:"stock"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
}

// fakeCatalog is an in-memory catalog that behaves the way the contract
// describes, enough to drive the client end to end.
type fakeCatalog struct {
	lock     sync.Mutex
	products map[int64]*fakeProduct
	nextID   int64
	headers  []http.Header

	// corrupt makes single product reads omit required fields.
	corrupt bool

	server *httptest.Server
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()

	f := &fakeCatalog{
		products: map[int64]*fakeProduct{},
		nextID:   1,
	}

	router := chi.NewRouter()
	router.Use(f.recordHeaders)
	router.Get("/health", f.health)
	router.Post("/health", f.health)

	authenticated := router.With(requireBearer)
	authenticated.Get("/api/products", f.list)
	authenticated.Post("/api/products", f.create)
	authenticated.Get("/api/products/{id}", f.get)
	authenticated.Put("/api/products/{id}", f.update)
	authenticated.Delete("/api/products/{id}", f.remove)

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeCatalog) config() *api.TestConfig {
	return &api.TestConfig{
		BaseURL:            f.server.URL,
		AuthToken:          fakeToken,
		RequestTimeout:     5 * time.Second,
		ConcurrentRequests: 5,
		OpenAPIValidation:  true,
		MetricsJob:         "unit",
	}
}

func (f *fakeCatalog) lastHeaders() http.Header {
	f.lock.Lock()
	defer f.lock.Unlock()

	if len(f.headers) == 0 {
		return nil
	}

	return f.headers[len(f.headers)-1]
}

func (f *fakeCatalog) recordHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		f.headers = append(f.headers, r.Header.Clone())
		f.lock.Unlock()

		next.ServeHTTP(w, r)
	})
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != api.BearerToken(fakeToken) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func (f *fakeCatalog) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func positiveQuery(r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, false
	}

	return value, true
}

func (f *fakeCatalog) list(w http.ResponseWriter, r *http.Request) {
	page, ok := positiveQuery(r, "page", 1)
	if !ok {
		badRequest(w, "invalid page")
		return
	}

	pageSize, ok := positiveQuery(r, "page_size", 10)
	if !ok {
		badRequest(w, "invalid page_size")
		return
	}

	category := r.URL.Query().Get("category")

	f.lock.Lock()
	defer f.lock.Unlock()

	ids := make([]int64, 0, len(f.products))
	for id, product := range f.products {
		if category == "" || product.Category == category {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)

	products := []*fakeProduct{}

	for i := (page - 1) * pageSize; i < len(ids) && i < page*pageSize; i++ {
		products = append(products, f.products[ids[i]])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"page":     page,
		"limit":    pageSize,
		"total":    len(ids),
	})
}

// apply copies recognised fields from payload, rejecting bad types.
func apply(product *fakeProduct, payload map[string]interface{}, partial bool) string {
	if name, ok := payload["name"]; ok || !partial {
		s, isString := name.(string)
		if !isString || s == "" || len(s) > api.MaxNameLength {
			return "invalid name"
		}

		product.Name = s
	}

	if price, ok := payload["price"]; ok || !partial {
		p, isNumber := price.(float64)
		if !isNumber || p <= 0 {
			return "invalid price"
		}

		product.Price = p
	}

	if category, ok := payload["category"]; ok || !partial {
		s, isString := category.(string)
		if !isString || s == "" {
			return "invalid category"
		}

		product.Category = s
	}

	if stock, ok := payload["stock"]; ok {
		s, isNumber := stock.(float64)
		if !isNumber || s < 0 {
			return "invalid stock"
		}

		product.Stock = int64(s)
	}

	if description, ok := payload["description"]; ok {
		s, isString := description.(string)
		if !isString || len(s) > api.MaxDescriptionLength {
			return "invalid description"
		}

		product.Description = s
	}

	return ""
}

func (f *fakeCatalog) create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid json")
		return
	}

	product := &fakeProduct{}
	if problem := apply(product, payload, false); problem != "" {
		badRequest(w, problem)
		return
	}

	f.lock.Lock()
	product.ID = f.nextID
	f.nextID++
	f.products[product.ID] = product
	f.lock.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{"product": product})
}

// lookup resolves the id path parameter, writing the error response itself.
func (f *fakeCatalog) lookup(w http.ResponseWriter, r *http.Request) (*fakeProduct, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		badRequest(w, "invalid id")
		return nil, false
	}

	product, ok := f.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return nil, false
	}

	return product, true
}

func (f *fakeCatalog) get(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()

	product, ok := f.lookup(w, r)
	if !ok {
		return
	}

	if f.corrupt {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"product": map[string]interface{}{"id": product.ID, "price": "free"},
		})

		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

func (f *fakeCatalog) update(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid json")
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	product, ok := f.lookup(w, r)
	if !ok {
		return
	}

	updated := *product
	if problem := apply(&updated, payload, true); problem != "" {
		badRequest(w, problem)
		return
	}

	*product = updated

	writeJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

func (f *fakeCatalog) remove(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()

	product, ok := f.lookup(w, r)
	if !ok {
		return
	}

	delete(f.products, product.ID)

	w.WriteHeader(http.StatusNoContent)
}
