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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "DROPZONE_RETRY_MAX_RETRIES", want: "retry.max_retries"},
		{in: "DROPZONE_RETRY_INITIAL_DELAY_MS", want: "retry.initial_delay_ms"},
		{in: "DROPZONE_DELETE_USE_RECYCLE_BIN", want: "delete.use_recycle_bin"},
		{in: "DROPZONE_COUNTER_FORMAT", want: "counter_format"},
		{in: "DROPZONE_WATCH_PATH", want: "watch_path"},
		{in: "DROPZONE_CONFIG", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envKey(tt.in), tt.in)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DROPZONE_RETRY_MAX_RETRIES", "5")
		t.Setenv("DROPZONE_RETRY_BACKOFF_MULTIPLIER", "1.5")
		t.Setenv("DROPZONE_DELETE_SKIP_HIDDEN", "false")
		t.Setenv("DROPZONE_DELETE_MAX_SIZE_BYTES", "2048")
		t.Setenv("DROPZONE_COUNTER_FORMAT", "0000")
		t.Setenv("DROPZONE_WATCH_PATH", "/downloads")
		t.Setenv("DROPZONE_CONFIG", "/elsewhere.yaml")

		s, err := ApplyEnv(DefaultSettings())
		require.NoError(t, err)

		assert.Equal(t, 5, s.Retry.MaxRetries)
		assert.Equal(t, 1.5, s.Retry.BackoffMultiplier)
		assert.Equal(t, 1000, s.Retry.InitialDelayMs, "unset values keep their current value")
		assert.False(t, s.Delete.SkipHidden)
		assert.True(t, s.Delete.SkipSystem)
		assert.Equal(t, int64(2048), s.Delete.MaxSizeBytes)
		assert.Equal(t, "0000", s.CounterFormat)
		assert.Equal(t, "/downloads", s.WatchPath)
	})

	t.Run("no_overrides", func(t *testing.T) {
		s, err := ApplyEnv(DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings(), s)
	})

	t.Run("invalid_value", func(t *testing.T) {
		t.Setenv("DROPZONE_RETRY_MAX_RETRIES", "0")
		_, err := ApplyEnv(DefaultSettings())
		assert.Error(t, err)
	})
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.hcl")
	assert.Equal(t, "/tmp/custom.hcl", DefaultPath())

	t.Setenv(EnvConfigPath, "")
	assert.Contains(t, DefaultPath(), "dropzone")
}
