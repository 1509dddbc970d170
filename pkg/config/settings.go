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

package config

import (
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/readiness"
	"github.com/walteh/dropzone/pkg/rename"
)

// DefaultMaxSizeBytes is the largest file delete will remove (1 GiB)
const DefaultMaxSizeBytes int64 = 1 << 30

// ⏱️ RetrySettings controls how long a busy file is waited on
type RetrySettings struct {
	MaxRetries        int     `json:"max_retries" yaml:"max_retries"`
	InitialDelayMs    int     `json:"initial_delay_ms" yaml:"initial_delay_ms"`
	MaxDelayMs        int     `json:"max_delay_ms" yaml:"max_delay_ms"`
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`
	SkipTemporary     bool    `json:"skip_temporary" yaml:"skip_temporary"`
}

// 🗑️ DeleteSettings guards the delete action
type DeleteSettings struct {
	SkipSystem    bool  `json:"skip_system" yaml:"skip_system"`
	SkipHidden    bool  `json:"skip_hidden" yaml:"skip_hidden"`
	MaxSizeBytes  int64 `json:"max_size_bytes" yaml:"max_size_bytes"`
	UseRecycleBin bool  `json:"use_recycle_bin" yaml:"use_recycle_bin"`
}

// ⚙️ Settings are the user-tunable knobs of the watcher
type Settings struct {
	Retry         RetrySettings  `json:"retry" yaml:"retry"`
	Delete        DeleteSettings `json:"delete" yaml:"delete"`
	CounterFormat string         `json:"counter_format" yaml:"counter_format"`
	WatchPath     string         `json:"watch_path,omitempty" yaml:"watch_path,omitempty"`
}

// 🏭 DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		Retry: RetrySettings{
			MaxRetries:        readiness.DefaultMaxRetries,
			InitialDelayMs:    int(readiness.DefaultInitialDelay / time.Millisecond),
			MaxDelayMs:        int(readiness.DefaultMaxDelay / time.Millisecond),
			BackoffMultiplier: readiness.DefaultBackoffMultiplier,
			SkipTemporary:     true,
		},
		Delete: DeleteSettings{
			SkipSystem:    true,
			SkipHidden:    true,
			MaxSizeBytes:  DefaultMaxSizeBytes,
			UseRecycleBin: false,
		},
		CounterFormat: rename.DefaultCounterFormat,
	}
}

// 🔍 Validate checks that every value is usable
func (s Settings) Validate() error {
	switch {
	case s.Retry.MaxRetries < 1:
		return errors.Errorf("retry.max_retries must be at least 1, got %d", s.Retry.MaxRetries)
	case s.Retry.InitialDelayMs < 1:
		return errors.Errorf("retry.initial_delay_ms must be positive, got %d", s.Retry.InitialDelayMs)
	case s.Retry.MaxDelayMs < s.Retry.InitialDelayMs:
		return errors.Errorf("retry.max_delay_ms (%d) must not be below retry.initial_delay_ms (%d)", s.Retry.MaxDelayMs, s.Retry.InitialDelayMs)
	case s.Retry.BackoffMultiplier < 1:
		return errors.Errorf("retry.backoff_multiplier must be at least 1, got %g", s.Retry.BackoffMultiplier)
	case s.Delete.MaxSizeBytes < 1:
		return errors.Errorf("delete.max_size_bytes must be positive, got %d", s.Delete.MaxSizeBytes)
	}
	if _, ok := rename.FormatNumber(0, s.CounterFormat); !ok {
		return errors.Errorf("counter_format %q is not a valid number format", s.CounterFormat)
	}
	return nil
}

// RetryOptions converts the retry settings for the readiness checker
func (s Settings) RetryOptions() readiness.RetryOptions {
	return readiness.RetryOptions{
		MaxRetries:        s.Retry.MaxRetries,
		InitialDelay:      time.Duration(s.Retry.InitialDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(s.Retry.MaxDelayMs) * time.Millisecond,
		BackoffMultiplier: s.Retry.BackoffMultiplier,
	}
}

// ✏️ Update changes one setting
type Update func(*Settings)

// Apply returns a copy of s with every update applied, validated
func (s Settings) Apply(updates ...Update) (Settings, error) {
	for _, u := range updates {
		u(&s)
	}
	if err := s.Validate(); err != nil {
		return s, errors.Errorf("applying settings: %w", err)
	}
	return s, nil
}

func WithMaxRetries(n int) Update {
	return func(s *Settings) { s.Retry.MaxRetries = n }
}

func WithInitialDelay(d time.Duration) Update {
	return func(s *Settings) { s.Retry.InitialDelayMs = int(d / time.Millisecond) }
}

func WithMaxDelay(d time.Duration) Update {
	return func(s *Settings) { s.Retry.MaxDelayMs = int(d / time.Millisecond) }
}

func WithBackoffMultiplier(m float64) Update {
	return func(s *Settings) { s.Retry.BackoffMultiplier = m }
}

func WithSkipTemporary(v bool) Update {
	return func(s *Settings) { s.Retry.SkipTemporary = v }
}

func WithSkipSystem(v bool) Update {
	return func(s *Settings) { s.Delete.SkipSystem = v }
}

func WithSkipHidden(v bool) Update {
	return func(s *Settings) { s.Delete.SkipHidden = v }
}

func WithMaxSizeBytes(n int64) Update {
	return func(s *Settings) { s.Delete.MaxSizeBytes = n }
}

func WithUseRecycleBin(v bool) Update {
	return func(s *Settings) { s.Delete.UseRecycleBin = v }
}

func WithCounterFormat(f string) Update {
	return func(s *Settings) { s.CounterFormat = f }
}

func WithWatchPath(p string) Update {
	return func(s *Settings) { s.WatchPath = p }
}
