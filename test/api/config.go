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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultBaseURL is used when API_BASE_URL is not set.
const DefaultBaseURL = "https://sdet-api.reckitplus.com"

var (
	// ErrMissingConfiguration is returned when a required value is absent.
	ErrMissingConfiguration = errors.New("missing required configuration")

	// ErrInvalidConfiguration is returned when a value is present but unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

type TestConfig struct {
	BaseURL              string        `env:"API_BASE_URL" envDefault:"https://sdet-api.reckitplus.com"`
	AuthToken            string        `env:"API_TOKEN"`
	ReadOnlyToken        string        `env:"API_READONLY_TOKEN"`
	ActiveOrderProductID string        `env:"API_ACTIVE_ORDER_PRODUCT_ID"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	TestTimeout          time.Duration `env:"TEST_TIMEOUT" envDefault:"30s"`
	HealthLatencyBudget  time.Duration `env:"HEALTH_LATENCY_BUDGET" envDefault:"2s"`
	MaxPageSize          int           `env:"MAX_PAGE_SIZE" envDefault:"1000"`

	ConcurrentRequests     int     `env:"CONCURRENT_REQUESTS" envDefault:"5"`
	RateLimitProbeRequests int     `env:"RATE_LIMIT_PROBE_REQUESTS" envDefault:"100"`
	MaxInFlight            int     `env:"FANOUT_MAX_IN_FLIGHT" envDefault:"0"`
	SetupRate              float64 `env:"SETUP_RATE" envDefault:"10"`
	SetupBurst             int     `env:"SETUP_BURST" envDefault:"5"`

	OpenAPIValidation bool `env:"OPENAPI_VALIDATION" envDefault:"true"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	LogRequests  bool   `env:"LOG_REQUESTS" envDefault:"false"`
	LogResponses bool   `env:"LOG_RESPONSES" envDefault:"false"`

	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	MetricsJob     string `env:"METRICS_JOB" envDefault:"product-catalog-contract-tests"`
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns an error if required configuration values are missing.
func LoadTestConfig() (*TestConfig, error) {
	config, err := ParseTestConfig()
	if err != nil {
		return nil, err
	}

	if err := validateRequiredFields(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseTestConfig is LoadTestConfig without the required field checks, for
// tools that need only part of the configuration.
func ParseTestConfig() (*TestConfig, error) {
	loadEnvFile()

	config := &TestConfig{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return config, nil
}

// MustLoadTestConfig is LoadTestConfig for setup nodes, where a panic is
// reported as a setup failure and aborts the run.
func MustLoadTestConfig() *TestConfig {
	config, err := LoadTestConfig()
	if err != nil {
		panic(err)
	}

	return config
}

// DefaultHeaders returns the headers every authenticated JSON request carries.
func (c *TestConfig) DefaultHeaders() map[string]string {
	return AuthHeaders(c)
}

// envFileCandidates lists where a .env file is looked for, nearest first.
// Suites run from test/api/suites, so the walk covers the repository root.
func envFileCandidates() []string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return []string{path}
	}

	return []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
}

func loadEnvFile() {
	var envPath string

	for _, path := range envFileCandidates() {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// Not found, CI sets variables directly.
		return
	}

	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}

// validateRequiredFields checks that all required configuration values are set.
func validateRequiredFields(config *TestConfig) error {
	var missing []string

	if config.AuthToken == "" {
		missing = append(missing, "API_TOKEN")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s. Please set these environment variables or add them to a .env file", ErrMissingConfiguration, strings.Join(missing, ", "))
	}

	if config.ConcurrentRequests < 2 {
		return fmt.Errorf("%w: CONCURRENT_REQUESTS must be at least 2, got %d", ErrInvalidConfiguration, config.ConcurrentRequests)
	}

	return nil
}
