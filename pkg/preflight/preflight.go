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

// Package preflight checks a catalog deployment is reachable and accepts
// the configured credentials before the contract suites are run against it.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/product-catalog-tests/test/api"

	"k8s.io/utils/ptr"
)

var (
	// ErrSlowHealth is raised when the health endpoint misses its latency budget.
	ErrSlowHealth = errors.New("health check exceeded latency budget")

	// ErrAuthNotEnforced is raised when the collection answers without credentials.
	ErrAuthNotEnforced = errors.New("catalog does not enforce authentication")
)

// Options are the command line overrides applied on top of the environment.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	SkipAuthCheck bool
}

func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.BaseURL, "base-url", "", "Catalog base URL, overrides API_BASE_URL")
	f.DurationVar(&o.Timeout, "timeout", 30*time.Second, "Overall time allowed for the checks")
	f.BoolVar(&o.SkipAuthCheck, "skip-auth-check", false, "Only check health, no API_TOKEN required")
}

// Apply overlays the options onto config.
func (o *Options) Apply(config *api.TestConfig) {
	if o.BaseURL != "" {
		config.BaseURL = o.BaseURL
	}
}

// Check is a single named preflight probe.
type Check struct {
	Name string
	Run  func(ctx context.Context, client *api.APIClient, config *api.TestConfig) error
}

// Checks returns the probes to run, in order.
func Checks(skipAuth bool) []Check {
	checks := []Check{
		{Name: "health", Run: checkHealth},
	}

	if skipAuth {
		return checks
	}

	return append(checks,
		Check{Name: "authenticated list", Run: checkAuthenticatedList},
		Check{Name: "authentication enforced", Run: checkAuthEnforced},
	)
}

func checkHealth(ctx context.Context, client *api.APIClient, config *api.TestConfig) error {
	resp, err := client.Health(ctx, http.MethodGet)
	if err != nil {
		return err
	}

	if config.HealthLatencyBudget > 0 && resp.Duration > config.HealthLatencyBudget {
		return fmt.Errorf("%w: took %v, budget %v", ErrSlowHealth, resp.Duration, config.HealthLatencyBudget)
	}

	return nil
}

func checkAuthenticatedList(ctx context.Context, client *api.APIClient, _ *api.TestConfig) error {
	_, err := client.ListProducts(ctx, &api.ListProductsParams{
		Page:     ptr.To(1),
		PageSize: ptr.To(1),
	})

	return err
}

func checkAuthEnforced(ctx context.Context, client *api.APIClient, _ *api.TestConfig) error {
	resp, err := client.Do(ctx, http.MethodGet, client.Endpoints().Products(), api.WithoutAuth())
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("%w: got status %d", ErrAuthNotEnforced, resp.StatusCode)
	}

	return nil
}

// Run executes every check, logging each outcome, and returns the joined
// failures.
func Run(ctx context.Context, logger *slog.Logger, client *api.APIClient, config *api.TestConfig, checks []Check) error {
	var errs []error

	for _, check := range checks {
		start := time.Now()

		if err := check.Run(ctx, client, config); err != nil {
			logger.Error("preflight check failed", "check", check.Name, "duration", time.Since(start), "error", err)

			errs = append(errs, fmt.Errorf("%s: %w", check.Name, err))

			continue
		}

		logger.Info("preflight check passed", "check", check.Name, "duration", time.Since(start))
	}

	return errors.Join(errs...)
}
