// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Defaults used when a RetryOptions field is left at its zero value.
const (
	DefaultMaxRetries        = 3
	DefaultInitialDelay      = time.Second
	DefaultMaxDelay          = 5 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// ⏱️ RetryOptions bounds how long WaitForAccess keeps trying
type RetryOptions struct {
	// MaxRetries is the total number of checks, including the first one
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryOptions returns 3 attempts starting at 1s and capped at 5s
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        DefaultMaxRetries,
		InitialDelay:      DefaultInitialDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

func (o RetryOptions) normalized() RetryOptions {
	def := DefaultRetryOptions()
	if o.MaxRetries <= 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = def.InitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.BackoffMultiplier < 1 {
		o.BackoffMultiplier = def.BackoffMultiplier
	}
	if o.InitialDelay > o.MaxDelay {
		o.InitialDelay = o.MaxDelay
	}
	return o
}

// Delay returns the wait before check number attempt+1, clamped to MaxDelay
func (o RetryOptions) Delay(attempt int) time.Duration {
	o = o.normalized()
	d := float64(o.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= o.BackoffMultiplier
		if d >= float64(o.MaxDelay) {
			return o.MaxDelay
		}
	}
	return time.Duration(d)
}

func (o RetryOptions) policy() backoff.BackOff {
	if o.MaxRetries <= 1 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.InitialDelay
	b.MaxInterval = o.MaxDelay
	b.Multiplier = o.BackoffMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(o.MaxRetries-1))
}

// 📄 AccessResult summarizes a WaitForAccess run
type AccessResult struct {
	Accessible  bool
	Cancelled   bool
	Message     string
	RetriesUsed int
	Last        Result
}

// 🔁 WaitForAccess re-checks path with exponential backoff until it is ready,
// it disappears, attempts run out or ctx is cancelled.
func (c *Checker) WaitForAccess(ctx context.Context, path string, opts RetryOptions) AccessResult {
	opts = opts.normalized()
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()

	var (
		attempts int
		last     Result
	)

	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		last = c.Check(path)
		switch {
		case last.Ready:
			return nil
		case last.Reason == ReasonFileNotAccessible:
			return errors.New(last.Message)
		default:
			// missing, temporary or invalid paths will not fix themselves
			return backoff.Permanent(errors.New(last.Message))
		}
	}

	notify := func(err error, wait time.Duration) {
		logger.Debug().
			Int("attempt", attempts).
			Dur("wait", wait).
			Err(err).
			Msg("file not accessible yet")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(opts.policy(), ctx), notify)

	res := AccessResult{RetriesUsed: attempts, Last: last}
	switch {
	case err == nil:
		res.Accessible = true
		res.Message = fmt.Sprintf("file accessible after %d attempt(s)", attempts)
	case ctx.Err() != nil:
		res.Cancelled = true
		res.Message = "wait for access cancelled"
	case last.Reason == ReasonFileNotAccessible:
		res.Message = fmt.Sprintf("file not accessible after %d attempt(s): %s", attempts, last.Message)
	default:
		res.Message = fmt.Sprintf("file not ready: %s", last.Message)
	}

	logger.Debug().
		Bool("accessible", res.Accessible).
		Int("attempts", attempts).
		Msg(res.Message)

	return res
}
