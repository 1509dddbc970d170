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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/config"
	"github.com/walteh/dropzone/pkg/log"
	"github.com/walteh/dropzone/pkg/monitor"
	"github.com/walteh/dropzone/pkg/operation"
	"github.com/walteh/dropzone/pkg/rename"
	"github.com/walteh/dropzone/pkg/rules"
)

// 🎯 RootOpts contains options shared by every command
type RootOpts struct {
	// ConfigPath is the rules and settings document, bound to --config
	ConfigPath string
	Debug      bool
}

// 🏭 NewRootOpts creates options pointing at the default document
func NewRootOpts() *RootOpts {
	return &RootOpts{ConfigPath: config.DefaultPath()}
}

// FileStore opens the configured document
func (o *RootOpts) FileStore() *config.FileStore {
	return config.NewFileStore(o.ConfigPath)
}

// 📦 App is a fully wired watcher
type App struct {
	Files    *config.FileStore
	Rules    *rules.Store
	Settings config.Settings
	Sink     *log.Sink
	Pipeline *monitor.Pipeline
	Monitor  *monitor.Monitor
}

// 🔧 Build loads settings and wires the store, engine, pipeline and monitor.
// A document that cannot be loaded never stops the watcher: default settings
// are used and the rule store starts empty.
func (o *RootOpts) Build(ctx context.Context) *App {
	files := o.FileStore()

	settings, err := files.LoadSettings(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", files.Path()).Msg("loading settings failed, using defaults")
		settings = config.DefaultSettings()
	}

	store := rules.NewStore(files)
	sink := log.NewSink()

	engine := operation.New(operation.Options{
		Processor: rename.New(rename.WithCounterFormat(settings.CounterFormat)),
		Delete: operation.DeleteOptions{
			SkipSystem:   settings.Delete.SkipSystem,
			SkipHidden:   settings.Delete.SkipHidden,
			MaxSizeBytes: settings.Delete.MaxSizeBytes,
			UseTrash:     settings.Delete.UseRecycleBin,
		},
	})

	pipeline := monitor.NewPipeline(store, engine, sink, monitor.PipelineOptions{
		Retry:         settings.RetryOptions(),
		SkipTemporary: settings.Retry.SkipTemporary,
	})

	return &App{
		Files:    files,
		Rules:    store,
		Settings: settings,
		Sink:     sink,
		Pipeline: pipeline,
		Monitor:  monitor.New(pipeline, sink),
	}
}

// WatchDir picks the directory argument, falling back to the saved watch path
func (a *App) WatchDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if a.Settings.WatchPath != "" {
		return a.Settings.WatchPath, nil
	}
	return "", errors.New("no directory given and no watch_path configured")
}
