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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	return path
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	c := NewChecker()

	tests := []struct {
		name   string
		path   string
		ready  bool
		reason Reason
	}{
		{name: "normal_file", path: writeFile(t, dir, "report.pdf"), ready: true, reason: ReasonNone},
		{name: "chrome_download", path: writeFile(t, dir, "movie.mp4.crdownload"), reason: ReasonTemporaryFile},
		{name: "temp_ext_uppercase", path: writeFile(t, dir, "data.PART"), reason: ReasonTemporaryFile},
		{name: "temp_ext_missing_file", path: filepath.Join(dir, "ghost.tmp"), reason: ReasonTemporaryFile},
		{name: "missing", path: filepath.Join(dir, "nope.txt"), reason: ReasonFileNotFound},
		{name: "empty", path: "", reason: ReasonInvalidPath},
		{name: "whitespace", path: "   ", reason: ReasonInvalidPath},
		{name: "nul_byte", path: "bad\x00name", reason: ReasonInvalidPath},
		{name: "directory", path: dir, reason: ReasonInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Check(tt.path)
			assert.Equal(t, tt.ready, res.Ready)
			assert.Equal(t, tt.reason, res.Reason, res.Message)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestTemporaryExtensions(t *testing.T) {
	c := NewChecker()
	for _, ext := range TemporaryExtensions() {
		assert.True(t, c.IsTemporary("file"+ext), ext)
	}
	assert.False(t, c.IsTemporary("file.txt"))
	assert.False(t, c.IsTemporary("crdownload"))
}

func TestTemporaryDetectionDisabled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "movie.mp4.part")

	assert.Equal(t, ReasonTemporaryFile, NewChecker().Check(path).Reason)
	assert.True(t, NewChecker(WithTemporaryDetection(false)).Check(path).Ready)
}

func TestRetryOptionsDelay(t *testing.T) {
	opts := RetryOptions{
		MaxRetries:        5,
		InitialDelay:      time.Second,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2,
	}

	assert.Equal(t, time.Second, opts.Delay(1))
	assert.Equal(t, 2*time.Second, opts.Delay(2))
	assert.Equal(t, 4*time.Second, opts.Delay(3))
	assert.Equal(t, 5*time.Second, opts.Delay(4))
	assert.Equal(t, 5*time.Second, opts.Delay(10))

	clamped := RetryOptions{MaxRetries: 2, InitialDelay: 10 * time.Second, MaxDelay: time.Second, BackoffMultiplier: 2}
	assert.Equal(t, time.Second, clamped.Delay(1))

	assert.Equal(t, DefaultRetryOptions(), RetryOptions{}.normalized())
}

func TestWaitForAccessReady(t *testing.T) {
	ctx := testContext(t)
	path := writeFile(t, t.TempDir(), "ready.txt")

	res := NewChecker().WaitForAccess(ctx, path, RetryOptions{MaxRetries: 3, InitialDelay: time.Millisecond})
	assert.True(t, res.Accessible)
	assert.False(t, res.Cancelled)
	assert.Equal(t, 1, res.RetriesUsed)
}

func TestWaitForAccessMissingStopsImmediately(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "gone.txt")

	start := time.Now()
	res := NewChecker().WaitForAccess(ctx, path, RetryOptions{MaxRetries: 5, InitialDelay: 200 * time.Millisecond})
	assert.False(t, res.Accessible)
	assert.Equal(t, 1, res.RetriesUsed)
	assert.Equal(t, ReasonFileNotFound, res.Last.Reason)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestWaitForAccessAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	path := writeFile(t, t.TempDir(), "ready.txt")
	res := NewChecker().WaitForAccess(ctx, path, DefaultRetryOptions())
	assert.False(t, res.Accessible)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 0, res.RetriesUsed)
}
