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

// Package api provides black-box contract test utilities for the Product
// Catalog API.
//
// # Separate Client Implementation
//
// The suites talk to the service through a small hand-written HTTP client
// (APIClient) rather than a generated one. The client is part of the
// contract: it encodes the paths, envelopes and status codes the service
// promises, so a change to the service's API shows up as a change here.
//
// Features tailored for contract testing:
//   - W3C trace context on every request, logged on failure
//   - Raw access to status codes, headers and bodies so scenarios can send
//     deliberately malformed requests and assert the rejection
//   - Overridable or omitted authentication per request
//   - No retries: a failed request is a failed spec
//
// # Fixtures
//
// Payloads come in three families: valid, invalid (one rule broken at a
// time) and malicious (SQL and script shaped content). Names embed a
// timestamp and a random suffix because the service treats product names
// as unique.
//
// # Running
//
// The scenario suites in ./suites are built with the "integration" tag and
// need API_TOKEN (and usually API_BASE_URL) in the environment or in a .env
// file:
//
//	go test -tags integration ./test/api/suites/...
package api
