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

// Package rules holds the rule model and the thread-safe, persisted rule store.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/dropzone/pkg/pattern"
)

var (
	// ErrInvalidRule is returned when a rule fails validation
	ErrInvalidRule = errors.Base("invalid rule")
	// ErrNotFound is returned when no rule has the requested name
	ErrNotFound = errors.Base("rule not found")
	// ErrReorderMismatch is returned when a reorder is not a permutation of the stored rules
	ErrReorderMismatch = errors.Base("reorder does not match stored rules")
)

// 🎬 ActionKind names a file action
type ActionKind string

const (
	ActionCopy                 ActionKind = "copy"
	ActionMove                 ActionKind = "move"
	ActionRename               ActionKind = "rename"
	ActionDelete               ActionKind = "delete"
	ActionInsertTimestamp      ActionKind = "insert_timestamp"
	ActionInsertSequenceNumber ActionKind = "insert_sequence_number"
)

// ActionKinds lists every known action in display order
func ActionKinds() []ActionKind {
	return []ActionKind{
		ActionCopy,
		ActionMove,
		ActionRename,
		ActionDelete,
		ActionInsertTimestamp,
		ActionInsertSequenceNumber,
	}
}

// Valid reports whether k is a known action
func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseActionKind accepts the canonical names plus dash and camel case spellings
func ParseActionKind(s string) (ActionKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch norm {
	case "inserttimestamp":
		norm = string(ActionInsertTimestamp)
	case "insertsequencenumber":
		norm = string(ActionInsertSequenceNumber)
	}
	k := ActionKind(norm)
	if !k.Valid() {
		return "", errors.Errorf("%w: unknown action %q", ErrInvalidRule, s)
	}
	return k, nil
}

// 🪜 Step is one action in a multi-step rule
type Step struct {
	Action         ActionKind `json:"action" yaml:"action"`
	Destination    string     `json:"destination,omitempty" yaml:"destination,omitempty"`
	RenameTemplate string     `json:"rename_template,omitempty" yaml:"rename_template,omitempty"`
	Enabled        bool       `json:"enabled" yaml:"enabled"`
}

// 📜 Rule pairs a file name pattern with the actions applied to matching files
type Rule struct {
	Name           string     `json:"name" yaml:"name"`
	Pattern        string     `json:"pattern" yaml:"pattern"`
	Enabled        bool       `json:"enabled" yaml:"enabled"`
	Action         ActionKind `json:"action,omitempty" yaml:"action,omitempty"`
	Destination    string     `json:"destination,omitempty" yaml:"destination,omitempty"`
	RenameTemplate string     `json:"rename_template,omitempty" yaml:"rename_template,omitempty"`
	Steps          []Step     `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Matches reports whether the rule is enabled and its pattern matches filename
func (r Rule) Matches(filename string) bool {
	return r.Enabled && pattern.IsMatch(r.Pattern, filename)
}

// 🪜 EffectiveSteps returns the enabled steps to run; a rule without steps runs
// its primary action as a single step.
func (r Rule) EffectiveSteps() []Step {
	if len(r.Steps) == 0 {
		if r.Action == "" {
			return nil
		}
		return []Step{{
			Action:         r.Action,
			Destination:    r.Destination,
			RenameTemplate: r.RenameTemplate,
			Enabled:        true,
		}}
	}

	out := make([]Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of r
func (r Rule) Clone() Rule {
	if r.Steps != nil {
		steps := make([]Step, len(r.Steps))
		copy(steps, r.Steps)
		r.Steps = steps
	}
	return r
}

// 🔍 Validate checks that the rule can be executed
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.Errorf("%w: name is required", ErrInvalidRule)
	}
	if !pattern.IsValidPattern(r.Pattern) {
		return errors.Errorf("%w: rule %q has invalid pattern %q", ErrInvalidRule, r.Name, r.Pattern)
	}

	if len(r.Steps) == 0 {
		if r.Action == "" {
			return errors.Errorf("%w: rule %q has no action", ErrInvalidRule, r.Name)
		}
		return validateStep(r.Name, Step{
			Action:         r.Action,
			Destination:    r.Destination,
			RenameTemplate: r.RenameTemplate,
			Enabled:        true,
		})
	}

	for i, s := range r.Steps {
		if err := validateStep(fmt.Sprintf("%s step %d", r.Name, i+1), s); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(label string, s Step) error {
	if !s.Action.Valid() {
		return errors.Errorf("%w: %s has unknown action %q", ErrInvalidRule, label, s.Action)
	}
	switch s.Action {
	case ActionCopy, ActionMove:
		if strings.TrimSpace(s.Destination) == "" {
			return errors.Errorf("%w: %s needs a destination for %s", ErrInvalidRule, label, s.Action)
		}
	case ActionRename:
		if strings.TrimSpace(s.RenameTemplate) == "" {
			return errors.Errorf("%w: %s needs a rename template", ErrInvalidRule, label)
		}
	}
	return nil
}

// String returns a short description of the rule
func (r Rule) String() string {
	state := "enabled"
	if !r.Enabled {
		state = "disabled"
	}
	if len(r.Steps) > 0 {
		return fmt.Sprintf("%s [%s] %s -> %d steps", r.Name, state, r.Pattern, len(r.Steps))
	}
	return fmt.Sprintf("%s [%s] %s -> %s", r.Name, state, r.Pattern, r.Action)
}

// rules and steps written by hand default to enabled when the key is omitted

type ruleAlias Rule

type stepAlias Step

// UnmarshalYAML decodes a rule, defaulting enabled to true
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	out := ruleAlias{Enabled: true}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*r = Rule(out)
	return nil
}

// UnmarshalJSON decodes a rule, defaulting enabled to true
func (r *Rule) UnmarshalJSON(data []byte) error {
	out := ruleAlias{Enabled: true}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*r = Rule(out)
	return nil
}

// UnmarshalYAML decodes a step, defaulting enabled to true
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	out := stepAlias{Enabled: true}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*s = Step(out)
	return nil
}

// UnmarshalJSON decodes a step, defaulting enabled to true
func (s *Step) UnmarshalJSON(data []byte) error {
	out := stepAlias{Enabled: true}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*s = Step(out)
	return nil
}
