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
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// InvalidToken is a bearer token no deployment will accept.
	InvalidToken = "invalid-token"

	// ExpiredTokenLiteral is the opaque "expired" token used by the
	// original scenarios, kept alongside the signed one.
	ExpiredTokenLiteral = "expired.token.here"
)

// BearerToken formats a token as an Authorization header value.
func BearerToken(token string) string {
	return "Bearer " + token
}

// AuthHeaders returns the Authorization and JSON Content-Type headers.
func AuthHeaders(config *TestConfig) map[string]string {
	return map[string]string{
		"Authorization": BearerToken(config.AuthToken),
		"Content-Type":  "application/json",
	}
}

// AuthHeadersOnly returns just the Authorization header.
func AuthHeadersOnly(config *TestConfig) map[string]string {
	return map[string]string{
		"Authorization": BearerToken(config.AuthToken),
	}
}

// ExpiredToken returns a well formed HS256 JWT that expired an hour ago.
// The signing key is random, so a service must reject it on either count.
func ExpiredToken() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}

	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   "contract-test",
		Issuer:    "product-catalog-tests",
		IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		NotBefore: jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing expired token: %w", err)
	}

	return signed, nil
}

// AuthorizationProbe is an Authorization header value the service must
// answer with 401.
type AuthorizationProbe struct {
	Label string
	Value string
}

// RejectedAuthorizations returns the invalid and expired bearer tokens.
func RejectedAuthorizations() ([]AuthorizationProbe, error) {
	expired, err := ExpiredToken()
	if err != nil {
		return nil, err
	}

	return []AuthorizationProbe{
		{Label: "invalid token", Value: BearerToken(InvalidToken)},
		{Label: "expired token", Value: BearerToken(ExpiredTokenLiteral)},
		{Label: "expired signed JWT", Value: BearerToken(expired)},
	}, nil
}

// MalformedAuthorizations returns header values that are not a bearer
// token at all.
func MalformedAuthorizations() []AuthorizationProbe {
	return []AuthorizationProbe{
		{Label: "unknown scheme", Value: "InvalidFormat token"},
		{Label: "missing Bearer prefix", Value: "valid-token-without-bearer"},
		{Label: "empty header", Value: ""},
		{Label: "scheme without token", Value: "Bearer "},
	}
}
