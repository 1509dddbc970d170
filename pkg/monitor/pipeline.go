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
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/walteh/dropzone/pkg/log"
	"github.com/walteh/dropzone/pkg/operation"
	"github.com/walteh/dropzone/pkg/readiness"
	"github.com/walteh/dropzone/pkg/rules"
)

// 📊 OutcomeKind says how far a file got through the pipeline
type OutcomeKind string

const (
	OutcomeSkippedTemporary OutcomeKind = "skipped_temporary"
	OutcomeNotReady         OutcomeKind = "not_ready"
	OutcomeRetryExhausted   OutcomeKind = "retry_exhausted"
	OutcomeNoMatch          OutcomeKind = "no_match"
	OutcomeApplied          OutcomeKind = "applied"
	OutcomeFailed           OutcomeKind = "failed"
)

// 📄 Outcome is the result of running one file through the pipeline
type Outcome struct {
	Kind    OutcomeKind
	Path    string
	Rule    string
	Message string
	Result  *operation.Result
	Err     error
}

// 📚 RuleSource gives read access to the ordered rules
type RuleSource interface {
	WithReadLock(ctx context.Context, fn func(rules []rules.Rule))
}

var _ RuleSource = (*rules.Store)(nil)

// 🔧 PipelineOptions tune readiness handling
type PipelineOptions struct {
	Retry readiness.RetryOptions
	// SkipTemporary drops files with a partial-download extension
	SkipTemporary bool
}

// 🚰 Pipeline takes one file from readiness to rule execution
type Pipeline struct {
	checker  *readiness.Checker
	rules    RuleSource
	executor operation.Executor
	sink     *log.Sink
	retry    readiness.RetryOptions
}

// 🏭 NewPipeline creates a pipeline; sink may be nil
func NewPipeline(source RuleSource, executor operation.Executor, sink *log.Sink, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		checker:  readiness.NewChecker(readiness.WithTemporaryDetection(opts.SkipTemporary)),
		rules:    source,
		executor: executor,
		sink:     sink,
		retry:    opts.Retry,
	}
}

// 🏃 Process runs path through readiness, rule matching and execution.
//
// The filesystem is re-checked on every call; the event that triggered it is
// only a hint. Only the first enabled rule whose pattern matches runs.
func (p *Pipeline) Process(ctx context.Context, path string) Outcome {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()
	ctx = logger.WithContext(ctx)

	if out, ready := p.awaitReady(ctx, path); !ready {
		return out
	}

	rule, found := p.match(ctx, filepath.Base(path))
	if !found {
		p.sink.Info(ctx, log.EventNoMatch, path, "", "no rule matches")
		return Outcome{Kind: OutcomeNoMatch, Path: path, Message: "no rule matches"}
	}

	p.sink.Info(ctx, log.EventRuleMatched, path, rule.Name, fmt.Sprintf("rule matched pattern %q", rule.Pattern))

	res, err := p.executor.Execute(ctx, rule, path)
	if res != nil {
		for _, step := range res.Steps {
			level := zerolog.InfoLevel
			if step.Status == operation.StepFailed {
				level = zerolog.ErrorLevel
			}
			p.sink.Emit(ctx, log.Entry{
				Level:   level,
				Event:   log.EventStep,
				Path:    step.From,
				Rule:    rule.Name,
				Message: step.String(),
			})
		}
	}

	if err != nil {
		p.sink.Error(ctx, path, rule.Name, err)
		return Outcome{Kind: OutcomeFailed, Path: path, Rule: rule.Name, Message: err.Error(), Result: res, Err: err}
	}

	return Outcome{Kind: OutcomeApplied, Path: path, Rule: rule.Name, Message: "rule applied", Result: res}
}

func (p *Pipeline) awaitReady(ctx context.Context, path string) (Outcome, bool) {
	check := p.checker.Check(path)
	switch {
	case check.Ready:
		return Outcome{}, true

	case check.Reason == readiness.ReasonTemporaryFile:
		p.sink.Info(ctx, log.EventReadiness, path, "", check.Message)
		return Outcome{Kind: OutcomeSkippedTemporary, Path: path, Message: check.Message}, false

	case check.Reason == readiness.ReasonFileNotAccessible:
		p.sink.Info(ctx, log.EventReadiness, path, "", check.Message+", waiting")

		wait := p.checker.WaitForAccess(ctx, path, p.retry)
		switch {
		case wait.Accessible:
			p.sink.Info(ctx, log.EventRetry, path, "", wait.Message)
			return Outcome{}, true
		case wait.Cancelled || wait.Last.Reason != readiness.ReasonFileNotAccessible:
			p.sink.Info(ctx, log.EventRetry, path, "", wait.Message)
			return Outcome{Kind: OutcomeNotReady, Path: path, Message: wait.Message}, false
		default:
			p.sink.Warn(ctx, log.EventRetry, path, "", wait.Message)
			return Outcome{Kind: OutcomeRetryExhausted, Path: path, Message: wait.Message}, false
		}

	default:
		p.sink.Info(ctx, log.EventReadiness, path, "", check.Message)
		return Outcome{Kind: OutcomeNotReady, Path: path, Message: check.Message}, false
	}
}

func (p *Pipeline) match(ctx context.Context, filename string) (rules.Rule, bool) {
	var (
		matched rules.Rule
		found   bool
	)
	p.rules.WithReadLock(ctx, func(all []rules.Rule) {
		for _, r := range all {
			if r.Matches(filename) {
				matched = r.Clone()
				found = true
				return
			}
		}
	})
	return matched, found
}
