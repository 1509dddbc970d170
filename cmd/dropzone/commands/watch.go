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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/log"
)

// 👀 NewWatchCmd creates the watch command
func NewWatchCmd(opts *RootOpts) *cobra.Command {
	var scanFirst bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a folder and apply rules to new files",
		Long: `Watch a folder and run every new or renamed file through the rules.

Files are handled one at a time. A file that is still being written is
retried with backoff; the first enabled rule whose pattern matches wins.
Without an argument the saved watch_path setting is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, args, scanFirst, NewPrinter(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().BoolVar(&scanFirst, "scan", false, "process files already in the folder before watching")
	return cmd
}

func runWatch(ctx context.Context, opts *RootOpts, args []string, scanFirst bool, printer *Printer) error {
	app := opts.Build(ctx)

	dir, err := app.WatchDir(args)
	if err != nil {
		return err
	}

	entries, unsubscribe := app.Sink.Subscribe(log.DefaultBuffer)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range entries {
			printer.Entry(e)
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	if scanFirst {
		if _, err := app.Monitor.ScanExisting(ctx, dir); err != nil {
			return errors.Errorf("scanning existing files: %w", err)
		}
	}

	if err := app.Monitor.Start(ctx, dir); err != nil {
		return errors.Errorf("starting watch: %w", err)
	}

	<-ctx.Done()

	// the run context is gone, stop with a fresh one so the in-flight file finishes
	stopCtx := zerolog.Ctx(ctx).WithContext(context.Background())
	if err := app.Monitor.Stop(stopCtx); err != nil {
		return errors.Errorf("stopping watch: %w", err)
	}

	if dropped := app.Sink.Dropped(); dropped > 0 {
		zerolog.Ctx(ctx).Warn().Uint64("dropped", dropped).Msg("activity entries were dropped")
	}
	return nil
}
