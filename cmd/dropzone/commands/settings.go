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
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/dropzone/pkg/config"
)

// ⚙️ NewSettingsCmd creates the settings command and its subcommands
func NewSettingsCmd(opts *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change watcher settings",
	}
	cmd.AddCommand(newSettingsShowCmd(opts), newSettingsSetCmd(opts))
	return cmd
}

func newSettingsShowCmd(opts *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print effective settings, including environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.FileStore().LoadSettings(cmd.Context())
			if err != nil {
				return errors.Errorf("loading settings: %w", err)
			}
			out, err := yaml.Marshal(settings)
			if err != nil {
				return errors.Errorf("encoding settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newSettingsSetCmd(opts *RootOpts) *cobra.Command {
	var (
		maxRetries    int
		initialDelay  time.Duration
		maxDelay      time.Duration
		multiplier    float64
		skipTemporary bool
		skipSystem    bool
		skipHidden    bool
		maxSize       int64
		recycleBin    bool
		counterFormat string
		watchPath     string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			var updates []config.Update
			add := func(name string, u config.Update) {
				if flags.Changed(name) {
					updates = append(updates, u)
				}
			}
			add("max-retries", config.WithMaxRetries(maxRetries))
			add("initial-delay", config.WithInitialDelay(initialDelay))
			add("max-delay", config.WithMaxDelay(maxDelay))
			add("backoff-multiplier", config.WithBackoffMultiplier(multiplier))
			add("skip-temporary", config.WithSkipTemporary(skipTemporary))
			add("skip-system", config.WithSkipSystem(skipSystem))
			add("skip-hidden", config.WithSkipHidden(skipHidden))
			add("max-size", config.WithMaxSizeBytes(maxSize))
			add("recycle-bin", config.WithUseRecycleBin(recycleBin))
			add("counter-format", config.WithCounterFormat(counterFormat))
			add("watch-path", config.WithWatchPath(watchPath))

			if len(updates) == 0 {
				return errors.New("no settings given")
			}

			files := opts.FileStore()
			doc, err := files.LoadDocument(ctx)
			if err != nil {
				return errors.Errorf("loading settings: %w", err)
			}

			next, err := doc.Settings.Apply(updates...)
			if err != nil {
				return err
			}
			if err := files.SaveSettings(ctx, next); err != nil {
				return errors.Errorf("saving settings: %w", err)
			}

			NewPrinter(cmd.OutOrStdout()).Result(true, "settings saved to "+files.Path())
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&maxRetries, "max-retries", 0, "attempts before a busy file is given up")
	f.DurationVar(&initialDelay, "initial-delay", 0, "first retry delay")
	f.DurationVar(&maxDelay, "max-delay", 0, "longest retry delay")
	f.Float64Var(&multiplier, "backoff-multiplier", 0, "growth factor between retries")
	f.BoolVar(&skipTemporary, "skip-temporary", true, "ignore partial downloads")
	f.BoolVar(&skipSystem, "skip-system", true, "never delete system files")
	f.BoolVar(&skipHidden, "skip-hidden", true, "never delete hidden files")
	f.Int64Var(&maxSize, "max-size", 0, "largest file delete will remove, in bytes")
	f.BoolVar(&recycleBin, "recycle-bin", false, "move deleted files to the trash")
	f.StringVar(&counterFormat, "counter-format", "", "default {counter} format, e.g. 000")
	f.StringVar(&watchPath, "watch-path", "", "folder used when watch has no argument")
	return cmd
}
