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
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// TransportFailure is the TallyStatuses key for calls that got no response.
const TransportFailure = 0

// Outcome is the result of one fanned out call.
type Outcome struct {
	Index    int
	Response *Response
	Err      error
}

// Call is one request in a fan out; i is its index.
type Call func(ctx context.Context, i int) (*Response, error)

// FanOutOption tunes a FanOut.
type FanOutOption func(*errgroup.Group)

// WithMaxInFlight caps how many calls run at once. Zero or less leaves the
// fan out unbounded.
func WithMaxInFlight(limit int) FanOutOption {
	return func(group *errgroup.Group) {
		if limit > 0 {
			group.SetLimit(limit)
		}
	}
}

// FanOut runs n calls at once and waits for all of them. A failing call
// never cancels the others, every outcome is recorded.
func FanOut(ctx context.Context, n int, call Call, opts ...FanOutOption) []Outcome {
	outcomes := make([]Outcome, n)

	var group errgroup.Group

	for _, opt := range opts {
		opt(&group)
	}

	for i := range n {
		group.Go(func() error {
			resp, err := call(ctx, i)
			outcomes[i] = Outcome{Index: i, Response: resp, Err: err}

			return nil
		})
	}

	// Calls never return errors, failures live in the outcomes.
	_ = group.Wait()

	return outcomes
}

// TallyStatuses counts outcomes by status code. Transport failures are
// counted under TransportFailure.
func TallyStatuses(outcomes []Outcome) map[int]int {
	tally := map[int]int{}

	for _, outcome := range outcomes {
		if outcome.Err != nil || outcome.Response == nil {
			tally[TransportFailure]++
			continue
		}

		tally[outcome.Response.StatusCode]++
	}

	return tally
}

// Errors returns the transport errors among outcomes.
func Errors(outcomes []Outcome) []error {
	var errs []error

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			errs = append(errs, outcome.Err)
		}
	}

	return errs
}

// NewSetupPacer limits how fast fixtures are created.
func NewSetupPacer(config *TestConfig) *rate.Limiter {
	burst := config.SetupBurst
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(config.SetupRate), burst)
}
