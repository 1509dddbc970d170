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

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/monitor"
)

// 🔎 NewScanCmd creates the scan command
func NewScanCmd(opts *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Apply rules once to the files already in a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app := opts.Build(ctx)

			dir, err := app.WatchDir(args)
			if err != nil {
				return err
			}

			outcomes, err := app.Monitor.ScanExisting(ctx, dir)
			if err != nil {
				return errors.Errorf("scanning %s: %w", dir, err)
			}

			printer := NewPrinter(cmd.OutOrStdout())
			counts := map[monitor.OutcomeKind]int{}
			for _, o := range outcomes {
				counts[o.Kind]++
				printer.Outcome(o)
			}

			printer.Result(counts[monitor.OutcomeFailed] == 0, fmt.Sprintf(
				"%d files: %d applied, %d unmatched, %d skipped, %d failed",
				len(outcomes),
				counts[monitor.OutcomeApplied],
				counts[monitor.OutcomeNoMatch],
				counts[monitor.OutcomeSkippedTemporary]+counts[monitor.OutcomeNotReady]+counts[monitor.OutcomeRetryExhausted],
				counts[monitor.OutcomeFailed],
			))
			return nil
		},
	}
	return cmd
}
