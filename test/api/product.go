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
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
	PriceDecimalPlaces   = 2
)

var (
	// ErrMissingEnvelope is returned when a success body lacks the product envelope.
	ErrMissingEnvelope = errors.New("response has no product envelope")

	// ErrPricePrecision is returned when a stored price has more than two decimals.
	ErrPricePrecision = errors.New("price is not normalised to two decimal places")
)

// Product is the catalog's wire representation of a product.
type Product struct {
	ID          int64           `json:"id" validate:"gt=0"`
	Name        string          `json:"name" validate:"required,max=255"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description,omitempty" validate:"max=1000"`
	Deleted     *bool           `json:"deleted,omitempty"`
}

// IsSoftDeleted is true when the service reports the product as deleted
// while still serving it.
func (p *Product) IsSoftDeleted() bool {
	return p.Deleted != nil && *p.Deleted
}

// ProductEnvelope wraps single product responses. Message is only set by
// delete variants that answer 200 with the removed product.
type ProductEnvelope struct {
	Product *Product `json:"product" validate:"required"`
	Message string   `json:"message,omitempty"`
}

// ProductList is the list endpoint envelope. The totals are optional.
type ProductList struct {
	Products   []Product `json:"products" validate:"required,dive"`
	Page       int       `json:"page" validate:"gte=1"`
	Limit      int       `json:"limit" validate:"gte=1"`
	Total      *int      `json:"total,omitempty" validate:"omitempty,gte=0"`
	TotalItems *int      `json:"totalItems,omitempty" validate:"omitempty,gte=0"`
	TotalPages *int      `json:"totalPages,omitempty" validate:"omitempty,gte=0"`
}

// IDs returns the product ids in list order.
func (l *ProductList) IDs() []int64 {
	ids := make([]int64, len(l.Products))
	for i := range l.Products {
		ids[i] = l.Products[i].ID
	}

	return ids
}

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func productValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	})

	return validate
}

// decimalValue lets numeric tags such as gt=0 apply to decimal prices.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}

	return nil
}

// ValidateProduct checks a product returned by the service against the
// catalog rules.
func ValidateProduct(p *Product) error {
	if err := productValidator().Struct(p); err != nil {
		return fmt.Errorf("product %d: %w", p.ID, err)
	}

	if !p.Price.Equal(p.Price.Round(PriceDecimalPlaces)) {
		return fmt.Errorf("%w: product %d has price %s", ErrPricePrecision, p.ID, p.Price)
	}

	return nil
}

// ValidateProductList checks the envelope and every product in it.
func ValidateProductList(l *ProductList) error {
	if err := productValidator().Struct(l); err != nil {
		return fmt.Errorf("product list: %w", err)
	}

	for i := range l.Products {
		if !l.Products[i].Price.Equal(l.Products[i].Price.Round(PriceDecimalPlaces)) {
			return fmt.Errorf("%w: product %d has price %s", ErrPricePrecision, l.Products[i].ID, l.Products[i].Price)
		}
	}

	return nil
}

// DecimalComparer compares prices by value, so 100 and 100.00 are equal.
func DecimalComparer() cmp.Option {
	return cmp.Comparer(func(a, b decimal.Decimal) bool {
		return a.Equal(b)
	})
}

// DiffProducts reports the differences between two products, or "" when
// they match.
func DiffProducts(want, got *Product, opts ...cmp.Option) string {
	return cmp.Diff(want, got, append([]cmp.Option{DecimalComparer()}, opts...)...)
}
