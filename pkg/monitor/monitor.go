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

// Package monitor watches a folder and feeds new files through the rule
// pipeline one at a time.
package monitor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/semaphore"

	"github.com/walteh/dropzone/pkg/log"
	"github.com/walteh/dropzone/pkg/operation"
)

var (
	// ErrNotDirectory is returned when the watch path is missing or not a directory
	ErrNotDirectory = errors.Base("not a directory")
)

// producedTTL bounds how long a file written by a rule is remembered
const producedTTL = time.Minute

// 📊 State is the monitor lifecycle state
type State int

const (
	StateStopped State = iota
	StateWatching
)

// String returns a string representation of State
func (s State) String() string {
	if s == StateWatching {
		return "watching"
	}
	return "stopped"
}

// 👀 Monitor watches one directory at a time.
//
// Every create or rename event starts a goroutine, but all of them pass
// through a single-slot gate so only one file is processed at once. Stop
// takes the same gate, so it returns only after the file in flight is done.
type Monitor struct {
	pipeline *Pipeline
	sink     *log.Sink
	gate     *semaphore.Weighted

	// generation changes on every Start and Stop; queued work from an older
	// generation is dropped
	generation atomic.Uint64

	// produced holds files this monitor's own rules wrote into the watched
	// directory; their next event is dropped so a rule never re-runs on its
	// own output. Only touched while holding gate.
	produced map[string]time.Time
	now      func() time.Time

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	stop     chan struct{}
	loopDone chan struct{}
	cancel   context.CancelFunc
	pending  sync.WaitGroup
}

// 🏭 New creates a stopped monitor; sink may be nil
func New(pipeline *Pipeline, sink *log.Sink) *Monitor {
	return &Monitor{
		pipeline: pipeline,
		sink:     sink,
		gate:     semaphore.NewWeighted(1),
		produced: make(map[string]time.Time),
		now:      time.Now,
	}
}

// State reports whether the monitor is watching
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return StateWatching
	}
	return StateStopped
}

// Dir returns the watched directory, empty when stopped
func (m *Monitor) Dir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

// ▶️ Start watches dir, stopping any previous watch first. ctx bounds the
// whole watch; cancelling it has the same effect on queued work as Stop.
func (m *Monitor) Start(ctx context.Context, dir string) error {
	abs, err := validateDir(dir)
	if err != nil {
		return err
	}

	if err := m.Stop(ctx); err != nil {
		return errors.Errorf("stopping previous watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(abs); err != nil {
		_ = watcher.Close()
		return errors.Errorf("watching %s: %w", abs, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	gen := m.generation.Add(1)

	m.mu.Lock()
	m.watcher = watcher
	m.dir = abs
	m.stop = make(chan struct{})
	m.loopDone = make(chan struct{})
	m.cancel = cancel
	stop, done := m.stop, m.loopDone
	m.mu.Unlock()

	go m.loop(runCtx, watcher, stop, done, gen)

	m.sink.Info(ctx, log.EventWatchStarted, abs, "", "watching "+abs)
	return nil
}

// ⏹️ Stop ends the watch. It cancels any retry wait, drops queued files and
// blocks until the file currently being processed is finished.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.watcher == nil {
		m.mu.Unlock()
		return nil
	}

	watcher, dir, done, cancel := m.watcher, m.dir, m.loopDone, m.cancel
	close(m.stop)
	m.watcher = nil
	m.dir = ""
	m.generation.Add(1)
	m.mu.Unlock()

	closeErr := watcher.Close()
	cancel()
	<-done

	// wait for the file in flight
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return errors.Errorf("waiting for in-flight file: %w", err)
	}
	m.gate.Release(1)

	// queued goroutines see the cancelled context and return
	m.pending.Wait()

	m.sink.Info(ctx, log.EventWatchStopped, dir, "", "stopped watching "+dir)

	if closeErr != nil {
		return errors.Errorf("closing watcher: %w", closeErr)
	}
	return nil
}

func (m *Monitor) loop(ctx context.Context, watcher *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}, gen uint64) {
	defer close(done)
	logger := zerolog.Ctx(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			m.sink.Info(ctx, log.EventFile, event.Name, "", event.Op.String())
			m.dispatch(ctx, gen, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			logger.Error().Err(err).Msg("watcher error")
			m.sink.Error(ctx, "", "", errors.Errorf("watcher: %w", err))
		}
	}
}

// dispatch hands path to a goroutine that waits for the gate
func (m *Monitor) dispatch(ctx context.Context, gen uint64, path string) {
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.processGated(ctx, gen, path)
	}()
}

func (m *Monitor) processGated(ctx context.Context, gen uint64, path string) (Outcome, bool) {
	if err := m.gate.Acquire(ctx, 1); err != nil {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("watch stopped, file dropped")
		return Outcome{}, false
	}
	defer m.gate.Release(1)

	if m.generation.Load() != gen || ctx.Err() != nil {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("watch stopped, file dropped")
		return Outcome{}, false
	}

	if m.claimProduced(path) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("file written by a rule, event ignored")
		return Outcome{}, false
	}

	out := m.pipeline.Process(ctx, path)
	m.recordProduced(filepath.Dir(path), out)
	return out, true
}

// recordProduced remembers every file the outcome wrote into dir. Must hold gate.
func (m *Monitor) recordProduced(dir string, out Outcome) {
	now := m.now()
	for p, at := range m.produced {
		if now.Sub(at) > producedTTL {
			delete(m.produced, p)
		}
	}

	if out.Result == nil {
		return
	}
	for _, step := range out.Result.Steps {
		if step.Status != operation.StepApplied || step.Target == "" {
			continue
		}
		target, err := filepath.Abs(step.Target)
		if err != nil {
			continue
		}
		if filepath.Dir(target) == dir {
			m.produced[target] = now
		}
	}
}

// claimProduced reports and forgets a file written by a rule. Must hold gate.
func (m *Monitor) claimProduced(path string) bool {
	at, ok := m.produced[path]
	if !ok {
		return false
	}
	delete(m.produced, path)
	return m.now().Sub(at) <= producedTTL
}

// 🔎 ScanExisting runs every regular file already in dir through the
// pipeline, in name order, using the same gate as watched files.
func (m *Monitor) ScanExisting(ctx context.Context, dir string) ([]Outcome, error) {
	abs, err := validateDir(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", abs, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var outcomes []Outcome
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := m.gate.Acquire(ctx, 1); err != nil {
			return outcomes, errors.Errorf("scan interrupted: %w", err)
		}
		out := m.pipeline.Process(ctx, filepath.Join(abs, entry.Name()))
		m.recordProduced(abs, out)
		outcomes = append(outcomes, out)
		m.gate.Release(1)
	}
	return outcomes, nil
}

func validateDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.Errorf("%w: empty path", ErrNotDirectory)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Errorf("%w: %s: %v", ErrNotDirectory, abs, err)
	}
	if !info.IsDir() {
		return "", errors.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	return abs, nil
}
