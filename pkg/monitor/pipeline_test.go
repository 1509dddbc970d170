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
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/log"
	"github.com/walteh/dropzone/pkg/operation"
	"github.com/walteh/dropzone/pkg/readiness"
	"github.com/walteh/dropzone/pkg/rules"
)

// 🔧 MockExecutor is a mock implementation of the operation.Executor interface
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, rule rules.Rule, path string) (*operation.Result, error) {
	result := m.Called(ctx, rule, path)
	res, _ := result.Get(0).(*operation.Result)
	return res, result.Error(1)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel).WithContext(context.Background())
}

func testOptions() PipelineOptions {
	return PipelineOptions{
		Retry: readiness.RetryOptions{
			MaxRetries:        2,
			InitialDelay:      5 * time.Millisecond,
			MaxDelay:          10 * time.Millisecond,
			BackoffMultiplier: 2,
		},
		SkipTemporary: true,
	}
}

func newStore(t *testing.T, rs ...rules.Rule) *rules.Store {
	t.Helper()
	return rules.NewStore(rules.NewMemoryPersister(rs...))
}

func deleteRule(name, pattern string) rules.Rule {
	return rules.Rule{Name: name, Pattern: pattern, Enabled: true, Action: rules.ActionDelete}
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	return path
}

func drain(ch <-chan log.Entry) []log.Entry {
	var out []log.Entry
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestProcessFirstMatchWins(t *testing.T) {
	ctx := testContext(t)
	path := writeFile(t, t.TempDir(), "x.txt")

	exec := &MockExecutor{}
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(r rules.Rule) bool { return r.Name == "first" }), path).
		Return(&operation.Result{Rule: "first", SourcePath: path}, nil).Once()

	store := newStore(t,
		rules.Rule{Name: "disabled", Pattern: "*.txt", Enabled: false, Action: rules.ActionDelete},
		deleteRule("first", "*.txt"),
		deleteRule("second", "x.*"),
	)

	p := NewPipeline(store, exec, nil, testOptions())
	out := p.Process(ctx, path)

	assert.Equal(t, OutcomeApplied, out.Kind)
	assert.Equal(t, "first", out.Rule)
	exec.AssertExpectations(t)
	exec.AssertNumberOfCalls(t, "Execute", 1)
}

func TestProcessOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		create   bool
		opts     func(o *PipelineOptions)
		rules    []rules.Rule
		execErr  error
		want     OutcomeKind
		executes bool
	}{
		{name: "no_match", file: "a.doc", create: true, rules: []rules.Rule{deleteRule("pdf", "*.pdf")}, want: OutcomeNoMatch},
		{name: "empty_store", file: "a.doc", create: true, want: OutcomeNoMatch},
		{name: "temporary_skipped", file: "a.pdf.crdownload", create: true, rules: []rules.Rule{deleteRule("all", "*")}, want: OutcomeSkippedTemporary},
		{
			name:     "temporary_processed_when_not_skipping",
			file:     "a.pdf.crdownload",
			create:   true,
			opts:     func(o *PipelineOptions) { o.SkipTemporary = false },
			rules:    []rules.Rule{deleteRule("all", "*")},
			want:     OutcomeApplied,
			executes: true,
		},
		{name: "missing_file", file: "gone.pdf", rules: []rules.Rule{deleteRule("all", "*")}, want: OutcomeNotReady},
		{name: "executor_error", file: "a.pdf", create: true, rules: []rules.Rule{deleteRule("all", "*")}, execErr: errors.New("disk full"), want: OutcomeFailed, executes: true},
		{name: "applied", file: "a.pdf", create: true, rules: []rules.Rule{deleteRule("all", "*.PDF")}, want: OutcomeApplied, executes: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			if tt.create {
				writeFile(t, dir, tt.file)
			}

			exec := &MockExecutor{}
			if tt.executes {
				exec.On("Execute", mock.Anything, mock.Anything, path).
					Return(&operation.Result{SourcePath: path}, tt.execErr).Once()
			}

			opts := testOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			sink := log.NewSink()
			entries, unsub := sink.Subscribe(32)
			defer unsub()

			p := NewPipeline(newStore(t, tt.rules...), exec, sink, opts)
			out := p.Process(ctx, path)

			assert.Equal(t, tt.want, out.Kind, out.Message)
			assert.Equal(t, path, out.Path)
			exec.AssertExpectations(t)
			if !tt.executes {
				exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
			}

			got := drain(entries)
			require.NotEmpty(t, got, "every outcome is reported to the sink")
			if tt.want == OutcomeFailed {
				assert.Equal(t, log.EventError, got[len(got)-1].Event)
				assert.ErrorIs(t, out.Err, tt.execErr)
			}
		})
	}
}

func TestProcessReportsSteps(t *testing.T) {
	ctx := testContext(t)
	path := writeFile(t, t.TempDir(), "a.pdf")

	exec := &MockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything, path).Return(&operation.Result{
		Rule:       "pdfs",
		SourcePath: path,
		Steps: []operation.StepResult{
			{Index: 0, Action: rules.ActionCopy, Status: operation.StepApplied, From: path, To: path, Message: "copied"},
			{Index: 1, Action: rules.ActionMove, Status: operation.StepFailed, From: path, To: path, Message: "denied"},
		},
	}, errors.New("step 2 failed"))

	sink := log.NewSink()
	entries, unsub := sink.Subscribe(32)
	defer unsub()

	p := NewPipeline(newStore(t, deleteRule("pdfs", "*.pdf")), exec, sink, testOptions())
	out := p.Process(ctx, path)
	require.Equal(t, OutcomeFailed, out.Kind)

	var steps []log.Entry
	for _, e := range drain(entries) {
		if e.Event == log.EventStep {
			steps = append(steps, e)
		}
	}
	require.Len(t, steps, 2)
	assert.Equal(t, zerolog.InfoLevel, steps[0].Level)
	assert.Equal(t, zerolog.ErrorLevel, steps[1].Level)
	assert.Equal(t, "pdfs", steps[1].Rule)
}

func TestProcessWithEngine(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(in, 0755))
	path := writeFile(t, in, "x.txt")

	store := newStore(t,
		rules.Rule{Name: "first", Pattern: "*.txt", Enabled: true, Action: rules.ActionMove, Destination: out},
		rules.Rule{Name: "second", Pattern: "x.*", Enabled: true, Action: rules.ActionDelete},
	)

	p := NewPipeline(store, operation.New(operation.Options{}), nil, testOptions())
	res := p.Process(ctx, path)

	require.Equal(t, OutcomeApplied, res.Kind, res.Message)
	assert.FileExists(t, filepath.Join(out, "x.txt"), "only the first rule runs")
	assert.NoFileExists(t, path)
}
