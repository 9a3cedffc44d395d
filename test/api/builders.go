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
	"time"

	"github.com/google/uuid"
)

// RunID identifies this test process in logs and pushed metrics.
//
//nolint:gochecknoglobals // fixed for the lifetime of the run
var RunID = uuid.NewString()

func shortSuffix() string {
	return uuid.NewString()[:8]
}

// UniqueName appends a timestamp and a random suffix to prefix. The catalog
// treats names as unique, so every created product needs one.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s %s-%s", prefix, time.Now().Format("20060102-150405"), shortSuffix())
}

// GenerateTestID returns a short random identifier for labels and headers.
func GenerateTestID() string {
	return "test-" + shortSuffix()
}
