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

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/rules"
)

// 📜 NewRulesCmd creates the rules command and its subcommands
func NewRulesCmd(opts *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List and edit the ordered rule list",
	}

	cmd.AddCommand(
		newRulesListCmd(opts),
		newRulesAddCmd(opts),
		newRulesRemoveCmd(opts),
		newRulesMoveCmd(opts),
		newRulesToggleCmd(opts, "enable", true),
		newRulesToggleCmd(opts, "disable", false),
	)
	return cmd
}

func newRulesListCmd(opts *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := rules.NewStore(opts.FileStore()).GetAll(cmd.Context())
			printer := NewPrinter(cmd.OutOrStdout())
			if len(all) == 0 {
				printer.Result(false, "no rules configured")
				return nil
			}

			rows := [][]string{{"#", "Name", "Pattern", "Enabled", "Actions"}}
			for i, r := range all {
				rows = append(rows, []string{
					strconv.Itoa(i),
					r.Name,
					r.Pattern,
					strconv.FormatBool(r.Enabled),
					describeSteps(r),
				})
			}
			return printer.Table(rows)
		},
	}
}

func newRulesAddCmd(opts *RootOpts) *cobra.Command {
	var (
		action      string
		destination string
		template    string
		steps       []string
		disabled    bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME PATTERN",
		Short: "Add a rule, or replace the rule with the same name",
		Long: `Add a rule, or replace the rule with the same name.

A rule runs either a single --action or a list of --step values. Each step is
written as ACTION or ACTION=ARG, where ARG is the destination for copy and
move and the name template for the other actions:

  dropzone rules add invoices "invoice*.pdf" \
    --step "insert_timestamp={filename}_{date}" \
    --step "move=/home/me/Documents/Invoices"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule := rules.Rule{
				Name:           args[0],
				Pattern:        args[1],
				Enabled:        !disabled,
				Destination:    destination,
				RenameTemplate: template,
			}

			if action != "" {
				kind, err := rules.ParseActionKind(action)
				if err != nil {
					return err
				}
				rule.Action = kind
			}

			for _, raw := range steps {
				step, err := parseStep(raw)
				if err != nil {
					return err
				}
				rule.Steps = append(rule.Steps, step)
			}

			if err := rules.NewStore(opts.FileStore()).Save(cmd.Context(), rule); err != nil {
				return errors.Errorf("saving rule: %w", err)
			}

			NewPrinter(cmd.OutOrStdout()).Result(true, "saved "+rule.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "single action: "+joinKinds())
	cmd.Flags().StringVar(&destination, "destination", "", "destination folder for copy and move")
	cmd.Flags().StringVarP(&template, "template", "t", "", "name template, e.g. {filename}_{date}")
	cmd.Flags().StringArrayVarP(&steps, "step", "s", nil, "ACTION[=ARG] step, repeatable")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "add the rule disabled")
	cmd.MarkFlagsMutuallyExclusive("action", "step")
	return cmd
}

func newRulesRemoveCmd(opts *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rules.NewStore(opts.FileStore()).Delete(cmd.Context(), args[0]); err != nil {
				return errors.Errorf("removing rule: %w", err)
			}
			NewPrinter(cmd.OutOrStdout()).Result(true, "removed "+args[0])
			return nil
		},
	}
}

func newRulesMoveCmd(opts *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "move NAME INDEX",
		Short: "Move a rule to a new position, 0 is evaluated first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Errorf("parsing index %q: %w", args[1], err)
			}
			if err := rules.NewStore(opts.FileStore()).Move(cmd.Context(), args[0], index); err != nil {
				return errors.Errorf("moving rule: %w", err)
			}
			NewPrinter(cmd.OutOrStdout()).Result(true, fmt.Sprintf("moved %s to %d", args[0], index))
			return nil
		},
	}
}

func newRulesToggleCmd(opts *RootOpts, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := rules.NewStore(opts.FileStore())

			rule, ok := store.Get(ctx, args[0])
			if !ok {
				return errors.Errorf("%w: %s", rules.ErrNotFound, args[0])
			}
			rule.Enabled = enabled
			if err := store.Save(ctx, rule); err != nil {
				return errors.Errorf("saving rule: %w", err)
			}
			NewPrinter(cmd.OutOrStdout()).Result(true, "saved "+rule.String())
			return nil
		},
	}
}

// parseStep reads ACTION or ACTION=ARG
func parseStep(raw string) (rules.Step, error) {
	name, arg, _ := strings.Cut(raw, "=")
	kind, err := rules.ParseActionKind(name)
	if err != nil {
		return rules.Step{}, err
	}

	step := rules.Step{Action: kind, Enabled: true}
	switch kind {
	case rules.ActionCopy, rules.ActionMove:
		step.Destination = arg
	default:
		step.RenameTemplate = arg
	}
	return step, nil
}

func describeSteps(r rules.Rule) string {
	parts := []string{}
	for _, s := range r.EffectiveSteps() {
		switch {
		case s.Destination != "" && s.RenameTemplate != "":
			parts = append(parts, fmt.Sprintf("%s(%s, %s)", s.Action, s.Destination, s.RenameTemplate))
		case s.Destination != "":
			parts = append(parts, fmt.Sprintf("%s(%s)", s.Action, s.Destination))
		case s.RenameTemplate != "":
			parts = append(parts, fmt.Sprintf("%s(%s)", s.Action, s.RenameTemplate))
		default:
			parts = append(parts, string(s.Action))
		}
	}
	return strings.Join(parts, " → ")
}

func joinKinds() string {
	kinds := rules.ActionKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
