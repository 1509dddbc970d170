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

package monitor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/dropzone/pkg/log"
	"github.com/walteh/dropzone/pkg/operation"
	"github.com/walteh/dropzone/pkg/rename"
	"github.com/walteh/dropzone/pkg/rules"
)

// slowExecutor records calls and blocks each one for delay
type slowExecutor struct {
	delay    time.Duration
	started  chan string
	finished atomic.Int32

	mu    sync.Mutex
	paths []string
}

func newSlowExecutor(delay time.Duration) *slowExecutor {
	return &slowExecutor{delay: delay, started: make(chan string, 16)}
}

func (s *slowExecutor) Execute(ctx context.Context, rule rules.Rule, path string) (*operation.Result, error) {
	s.mu.Lock()
	s.paths = append(s.paths, filepath.Base(path))
	s.mu.Unlock()

	s.started <- path
	time.Sleep(s.delay)
	s.finished.Add(1)
	return &operation.Result{Rule: rule.Name, SourcePath: path, FinalPath: path}, nil
}

func (s *slowExecutor) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func TestStartRejectsNonDirectory(t *testing.T) {
	ctx := testContext(t)
	m := New(NewPipeline(newStore(t), newSlowExecutor(0), nil, testOptions()), nil)

	file := writeFile(t, t.TempDir(), "a.txt")
	assert.ErrorIs(t, m.Start(ctx, file), ErrNotDirectory)
	assert.ErrorIs(t, m.Start(ctx, filepath.Join(t.TempDir(), "missing")), ErrNotDirectory)
	assert.ErrorIs(t, m.Start(ctx, ""), ErrNotDirectory)
	assert.Equal(t, StateStopped, m.State())
}

func TestMonitorProcessesNewFiles(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()

	exec := newSlowExecutor(0)
	sink := log.NewSink()
	entries, unsub := sink.Subscribe(64)
	defer unsub()

	m := New(NewPipeline(newStore(t, deleteRule("all", "*.txt")), exec, sink, testOptions()), sink)
	require.NoError(t, m.Start(ctx, dir))
	assert.Equal(t, StateWatching, m.State())
	assert.NotEmpty(t, m.Dir())

	writeFile(t, dir, "a.txt")

	select {
	case p := <-exec.started:
		assert.Equal(t, "a.txt", filepath.Base(p))
	case <-time.After(5 * time.Second):
		t.Fatal("file was not processed")
	}

	require.NoError(t, m.Stop(ctx))
	assert.Equal(t, StateStopped, m.State())
	assert.Empty(t, m.Dir())

	var events []log.Event
	for _, e := range drain(entries) {
		events = append(events, e.Event)
	}
	assert.Contains(t, events, log.EventWatchStarted)
	assert.Contains(t, events, log.EventFile)
	assert.Contains(t, events, log.EventRuleMatched)
	assert.Contains(t, events, log.EventWatchStopped)
}

func TestStopWaitsForInFlightFile(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()

	const delay = 400 * time.Millisecond
	exec := newSlowExecutor(delay)

	m := New(NewPipeline(newStore(t, deleteRule("all", "*")), exec, nil, testOptions()), nil)
	require.NoError(t, m.Start(ctx, dir))

	writeFile(t, dir, "slow.bin")

	var startedAt time.Time
	select {
	case <-exec.started:
		startedAt = time.Now()
	case <-time.After(5 * time.Second):
		t.Fatal("file was not processed")
	}

	// more files queue up behind the gate while the first is running
	writeFile(t, dir, "queued1.bin")
	writeFile(t, dir, "queued2.bin")
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, m.Stop(ctx))
	stoppedAt := time.Now()

	assert.Equal(t, int32(1), exec.finished.Load(), "stop returned only after the in-flight file finished")
	assert.GreaterOrEqual(t, stoppedAt.Sub(startedAt), delay-20*time.Millisecond)
	assert.Equal(t, []string{"slow.bin"}, exec.calls(), "queued files are dropped on stop")
}

func TestStopIsIdempotent(t *testing.T) {
	ctx := testContext(t)
	m := New(NewPipeline(newStore(t), newSlowExecutor(0), nil, testOptions()), nil)

	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Start(ctx, t.TempDir()))
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Stop(ctx))
}

func TestStartReplacesPreviousWatch(t *testing.T) {
	ctx := testContext(t)
	first, second := t.TempDir(), t.TempDir()

	exec := newSlowExecutor(0)
	m := New(NewPipeline(newStore(t, deleteRule("all", "*")), exec, nil, testOptions()), nil)

	require.NoError(t, m.Start(ctx, first))
	require.NoError(t, m.Start(ctx, second))
	defer m.Stop(ctx)

	abs, err := filepath.Abs(second)
	require.NoError(t, err)
	assert.Equal(t, abs, m.Dir())

	writeFile(t, first, "ignored.txt")
	writeFile(t, second, "seen.txt")

	select {
	case p := <-exec.started:
		assert.Equal(t, "seen.txt", filepath.Base(p))
	case <-time.After(5 * time.Second):
		t.Fatal("file was not processed")
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"seen.txt"}, exec.calls())
}

func TestScanExisting(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	writeFile(t, dir, "b.txt")
	writeFile(t, dir, "a.txt")
	writeFile(t, dir, "c.part")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	writeFile(t, filepath.Join(dir, "sub"), "nested.txt")

	exec := newSlowExecutor(0)
	m := New(NewPipeline(newStore(t, deleteRule("txt", "*.txt")), exec, nil, testOptions()), nil)

	outcomes, err := m.ScanExisting(ctx, dir)
	require.NoError(t, err)

	kinds := map[string]OutcomeKind{}
	for _, o := range outcomes {
		kinds[filepath.Base(o.Path)] = o.Kind
	}
	assert.Equal(t, map[string]OutcomeKind{
		"a.txt":  OutcomeApplied,
		"b.txt":  OutcomeApplied,
		"c.part": OutcomeSkippedTemporary,
	}, kinds)
	assert.Equal(t, []string{"a.txt", "b.txt"}, exec.calls())

	_, err = m.ScanExisting(ctx, filepath.Join(dir, "a.txt"))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRenameInPlaceDoesNotRetrigger(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()

	engine := operation.New(operation.Options{
		Processor: rename.New(rename.WithSequence(rename.NewCounter())),
	})
	store := newStore(t, rules.Rule{Name: "number", Pattern: "*.txt", Enabled: true, Action: rules.ActionInsertSequenceNumber})

	sink := log.NewSink()
	entries, unsub := sink.Subscribe(256)
	defer unsub()

	m := New(NewPipeline(store, engine, sink, testOptions()), sink)
	require.NoError(t, m.Start(ctx, dir))

	writeFile(t, dir, "a.txt")

	require.Eventually(t, func() bool {
		names := dirNames(t, dir)
		return len(names) == 1 && names[0] == "a_001.txt"
	}, 5*time.Second, 20*time.Millisecond)

	// give a second rename time to happen if the new name were picked up again
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, m.Stop(ctx))

	assert.Equal(t, []string{"a_001.txt"}, dirNames(t, dir))

	applied := 0
	for _, e := range drain(entries) {
		if e.Event == log.EventRuleMatched {
			applied++
		}
	}
	assert.Equal(t, 1, applied, "the rule runs once per incoming file")
}

func TestProducedFilesAreForgotten(t *testing.T) {
	m := New(NewPipeline(newStore(t), newSlowExecutor(0), nil, testOptions()), nil)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	dir := t.TempDir()
	inside := filepath.Join(dir, "a_001.txt")
	outside := filepath.Join(t.TempDir(), "a.txt")

	m.recordProduced(dir, Outcome{Result: &operation.Result{Steps: []operation.StepResult{
		{Status: operation.StepApplied, Target: inside},
		{Status: operation.StepApplied, Target: outside},
		{Status: operation.StepSkipped, Target: filepath.Join(dir, "skipped.txt")},
	}}})

	assert.False(t, m.claimProduced(outside), "files outside the watched folder never produce events here")
	assert.False(t, m.claimProduced(filepath.Join(dir, "skipped.txt")))
	assert.True(t, m.claimProduced(inside))
	assert.False(t, m.claimProduced(inside), "an entry is claimed once")

	m.recordProduced(dir, Outcome{Result: &operation.Result{Steps: []operation.StepResult{
		{Status: operation.StepApplied, Target: inside},
	}}})
	clock = clock.Add(producedTTL + time.Second)
	assert.False(t, m.claimProduced(inside), "stale entries expire")
}
