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

package operation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/rename"
	"github.com/walteh/dropzone/pkg/rules"
)

// DefaultMaxSizeBytes is the delete size ceiling used when none is set (1 GiB)
const DefaultMaxSizeBytes int64 = 1 << 30

// 🔧 Executor runs a rule against one file
type Executor interface {
	Execute(ctx context.Context, rule rules.Rule, path string) (*Result, error)
}

// 🗑️ DeleteOptions gate the delete action
type DeleteOptions struct {
	SkipSystem   bool
	SkipHidden   bool
	// MaxSizeBytes is the largest file removed; zero means DefaultMaxSizeBytes
	MaxSizeBytes int64
	// UseTrash moves files into the freedesktop trash instead of removing them
	UseTrash bool
	// TrashDir overrides the trash location, defaults to $XDG_DATA_HOME/Trash
	TrashDir string
}

// DefaultDeleteOptions skips hidden and system files and anything above 1 GiB
func DefaultDeleteOptions() DeleteOptions {
	return DeleteOptions{
		SkipSystem:   true,
		SkipHidden:   true,
		MaxSizeBytes: DefaultMaxSizeBytes,
	}
}

// 🔧 Options contains configuration for the engine
type Options struct {
	// Processor expands rename templates; defaults to rename.New()
	Processor *rename.Processor
	Delete    DeleteOptions
	// Now stamps trash entries; defaults to time.Now
	Now func() time.Time
}

// 🎮 Engine executes rule steps against files
type Engine struct {
	processor *rename.Processor
	del       DeleteOptions
	now       func() time.Time
}

var _ Executor = (*Engine)(nil)

// 🏭 New creates an engine with the given options
func New(opts Options) *Engine {
	e := &Engine{
		processor: opts.Processor,
		del:       opts.Delete,
		now:       opts.Now,
	}
	if e.processor == nil {
		e.processor = rename.New()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.del.MaxSizeBytes <= 0 {
		e.del.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if e.del.TrashDir == "" {
		e.del.TrashDir = defaultTrashDir()
	}
	return e
}

func defaultTrashDir() string {
	return filepath.Join(xdg.DataHome, "Trash")
}

// 📊 StepStatus is the outcome of one step
type StepStatus string

const (
	StepApplied StepStatus = "applied"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// 📄 StepResult records what one step did
type StepResult struct {
	Index  int
	Action rules.ActionKind
	Status StepStatus
	// From is the path the step received, To the path it handed on
	From string
	To   string
	// Target is the file the step wrote, which for a copy differs from To
	Target  string
	Message string
}

// String returns a one-line description of the step
func (s StepResult) String() string {
	return fmt.Sprintf("step %d %s %s: %s", s.Index+1, s.Action, s.Status, s.Message)
}

// 📄 Result records a rule execution
type Result struct {
	Rule       string
	SourcePath string
	// FinalPath is where the file ended up, empty once it was deleted
	FinalPath string
	Steps     []StepResult
}

// Deleted reports whether a step removed the file
func (r *Result) Deleted() bool {
	return r.FinalPath == "" && len(r.Steps) > 0
}

// 🏃 Execute runs the rule's effective steps against path in order.
//
// Each step receives the path left by the previous one. A delete ends the
// rule. A failing step stops the remaining steps; earlier steps are not undone.
func (e *Engine) Execute(ctx context.Context, rule rules.Rule, path string) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("rule", rule.Name).Logger()

	res := &Result{Rule: rule.Name, SourcePath: path, FinalPath: path}

	if err := rule.Validate(); err != nil {
		return res, errors.Errorf("validating rule: %w", err)
	}

	steps := rule.EffectiveSteps()
	for i, step := range steps {
		current := res.FinalPath

		out, err := e.runStep(ctx, step, current)
		sr := StepResult{Index: i, Action: step.Action, From: current}

		if err != nil {
			sr.Status = StepFailed
			sr.To = current
			sr.Message = err.Error()
			res.Steps = append(res.Steps, sr)
			logger.Error().Err(err).Int("step", i+1).Str("action", string(step.Action)).Str("path", current).Msg("step failed, skipping remaining steps")
			return res, errors.Errorf("step %d (%s) on %s: %w", i+1, step.Action, current, err)
		}

		sr.To = out.next
		sr.Target = out.target
		sr.Message = out.message
		sr.Status = StepSkipped
		if out.applied {
			sr.Status = StepApplied
		}

		res.Steps = append(res.Steps, sr)
		res.FinalPath = out.next

		logger.Debug().
			Int("step", i+1).
			Str("action", string(step.Action)).
			Str("status", string(sr.Status)).
			Str("from", current).
			Str("to", out.next).
			Msg(out.message)

		if out.next == "" {
			break
		}
	}

	return res, nil
}

// outcome is what an action hands back to Execute
type outcome struct {
	next    string
	target  string
	applied bool
	message string
}

func skipped(path, msg string) outcome {
	return outcome{next: path, message: msg}
}

func (e *Engine) runStep(ctx context.Context, step rules.Step, path string) (outcome, error) {
	switch step.Action {
	case rules.ActionCopy:
		return e.copy(ctx, path, step.Destination, step.RenameTemplate)
	case rules.ActionMove:
		return e.move(ctx, path, step.Destination, step.RenameTemplate)
	case rules.ActionRename:
		return e.rename(ctx, path, step.RenameTemplate)
	case rules.ActionDelete:
		return e.delete(ctx, path)
	case rules.ActionInsertTimestamp:
		tmpl := step.RenameTemplate
		if tmpl == "" {
			tmpl = DefaultTimestampTemplate
		}
		return e.rename(ctx, path, tmpl)
	case rules.ActionInsertSequenceNumber:
		tmpl := step.RenameTemplate
		if tmpl == "" {
			tmpl = DefaultSequenceTemplate
		}
		return e.rename(ctx, path, tmpl)
	default:
		return skipped(path, ""), errors.Errorf("%w: unknown action %q", rules.ErrInvalidRule, step.Action)
	}
}
