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

package main

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/dropzone/cmd/dropzone/commands"
	"github.com/walteh/dropzone/pkg/log"
)

func main() {
	ctx := context.Background()
	cmd := newRootCmd(commands.NewRootOpts())

	if err := cmd.ExecuteContext(ctx); err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌", Style: pterm.Error.Prefix.Style}).Println(err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around opts
func newRootCmd(opts *commands.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dropzone",
		Short: "Watch a folder and sort incoming files with rules",
		Long: `dropzone watches a folder (usually Downloads) and applies the first
matching rule to every file that lands in it. Rules copy, move, rename or
delete files, and can stamp names with dates or counters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(setupLogging(cmd.Context(), opts.Debug))
		},
	}

	addRootFlags(cmd, opts)

	cmd.AddCommand(
		commands.NewWatchCmd(opts),
		commands.NewScanCmd(opts),
		commands.NewRulesCmd(opts),
		commands.NewSettingsCmd(opts),
	)
	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, opts *commands.RootOpts) {
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "rules and settings file (.yaml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging attaches a console logger to ctx; the activity feed is printed
// separately, so only warnings reach the log unless debugging
func setupLogging(ctx context.Context, debug bool) context.Context {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
		pterm.EnableDebugMessages()
	}
	logger := log.NewLogger(os.Stderr, level, true)
	return logger.WithContext(ctx)
}
