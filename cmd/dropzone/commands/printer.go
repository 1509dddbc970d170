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
	"io"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/walteh/dropzone/pkg/log"
	"github.com/walteh/dropzone/pkg/monitor"
)

// 📢 Printer gives user-friendly feedback about what the watcher did
type Printer struct {
	out io.Writer
}

// 🎯 NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) prefixed(base pterm.PrefixPrinter, symbol string) *pterm.PrefixPrinter {
	return base.WithPrefix(pterm.Prefix{Text: symbol, Style: base.Prefix.Style}).WithWriter(p.out)
}

// 📝 Entry prints one activity log entry
func (p *Printer) Entry(e log.Entry) {
	var printer *pterm.PrefixPrinter
	switch {
	case e.Level >= zerolog.ErrorLevel:
		printer = p.prefixed(pterm.Error, "❌")
	case e.Level == zerolog.WarnLevel:
		printer = p.prefixed(pterm.Warning, "⚠️")
	case e.Event == log.EventStep:
		printer = p.prefixed(pterm.Success, "✨")
	case e.Event == log.EventWatchStarted || e.Event == log.EventWatchStopped:
		printer = p.prefixed(pterm.Info, "👀")
	case e.Event == log.EventFile || e.Event == log.EventNoMatch:
		printer = p.prefixed(pterm.Debug, "📄")
	default:
		printer = p.prefixed(pterm.Info, "📦")
	}
	printer.Println(log.FormatEntry(e))
}

// 📊 Outcome prints the result of one scanned file
func (p *Printer) Outcome(o monitor.Outcome) {
	name := filepath.Base(o.Path)
	msg := fmt.Sprintf("%s: %s", name, o.Message)
	if o.Rule != "" {
		msg = fmt.Sprintf("%s [%s]: %s", name, o.Rule, o.Message)
	}

	switch o.Kind {
	case monitor.OutcomeApplied:
		p.prefixed(pterm.Success, "✅").Println(msg)
	case monitor.OutcomeFailed:
		p.prefixed(pterm.Error, "❌").Println(msg)
	case monitor.OutcomeRetryExhausted:
		p.prefixed(pterm.Warning, "🔒").Println(msg)
	default:
		p.prefixed(pterm.Info, "⏭️").Println(msg)
	}
}

// 🔍 Result reports a command result
func (p *Printer) Result(ok bool, description string) {
	if ok {
		p.prefixed(pterm.Success, "✅").Println(description)
		return
	}
	p.prefixed(pterm.Warning, "⚠️").Println(description)
}

// Table renders rows with a header
func (p *Printer) Table(rows [][]string) error {
	return pterm.DefaultTable.WithHasHeader().WithWriter(p.out).WithData(rows).Render()
}
