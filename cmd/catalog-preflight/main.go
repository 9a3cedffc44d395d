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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/product-catalog-tests/pkg/preflight"
	"github.com/unikorn-cloud/product-catalog-tests/test/api"
)

func main() {
	var options preflight.Options

	options.AddFlags(pflag.CommandLine)

	pflag.Parse()

	load := api.LoadTestConfig
	if options.SkipAuthCheck {
		load = api.ParseTestConfig
	}

	config, err := load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	options.Apply(config)

	logger := api.NewLogger(config, os.Stderr)
	logger.Info("preflight starting", "baseURL", config.BaseURL, "runID", api.RunID)

	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
	defer cancel()

	client := api.NewAPIClientWithConfig(config, api.WithLogger(logger))

	if err := preflight.Run(ctx, logger, client, config, preflight.Checks(options.SkipAuthCheck)); err != nil {
		fmt.Println(err)
		os.Exit(1) //nolint:gocritic
	}
}
