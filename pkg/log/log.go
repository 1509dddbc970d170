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

// Package log carries the activity sink: every entry goes to zerolog and is
// fanned out to subscribers without ever blocking the caller.
package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	indent     = 2  // spaces before each entry
	eventWidth = 14 // width for the event name
	nameWidth  = 35 // width for the file name
	ruleWidth  = 18 // width for the rule name
)

// DefaultBuffer is the subscriber channel size used when none is given
const DefaultBuffer = 64

// 🏷️ Event names what an entry is about
type Event string

const (
	EventWatchStarted Event = "watch_started"
	EventWatchStopped Event = "watch_stopped"
	EventFile         Event = "file_event"
	EventReadiness    Event = "readiness"
	EventRetry        Event = "retry"
	EventRuleMatched  Event = "rule_matched"
	EventNoMatch      Event = "no_match"
	EventStep         Event = "step"
	EventError        Event = "error"
)

// 📝 Entry is one activity record
type Entry struct {
	Time    time.Time
	Level   zerolog.Level
	Event   Event
	Path    string
	Rule    string
	Message string
}

// 🎯 Sink records activity to zerolog and to any subscribers
type Sink struct {
	mu      sync.Mutex
	subs    map[int]chan Entry
	nextID  int
	closed  bool
	dropped atomic.Uint64
	now     func() time.Time
}

// 🏭 NewSink creates a sink with no subscribers
func NewSink() *Sink {
	return &Sink{
		subs: make(map[int]chan Entry),
		now:  time.Now,
	}
}

// 📡 Subscribe returns a channel receiving every future entry and a function
// that unsubscribes and closes it. Entries are dropped when the buffer is full.
func (s *Sink) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Entry, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Dropped reports how many entries were discarded because a subscriber was full
func (s *Sink) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// Close closes every subscriber channel; later entries only reach zerolog
func (s *Sink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// 📝 Emit records e. A nil sink only logs.
func (s *Sink) Emit(ctx context.Context, e Entry) {
	if e.Time.IsZero() {
		if s != nil {
			e.Time = s.now()
		} else {
			e.Time = time.Now()
		}
	}

	ev := zerolog.Ctx(ctx).WithLevel(e.Level).Str("event", string(e.Event))
	if e.Path != "" {
		ev = ev.Str("path", e.Path)
	}
	if e.Rule != "" {
		ev = ev.Str("rule", e.Rule)
	}
	ev.Msg(e.Message)

	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

// Info records an info entry
func (s *Sink) Info(ctx context.Context, event Event, path, rule, msg string) {
	s.Emit(ctx, Entry{Level: zerolog.InfoLevel, Event: event, Path: path, Rule: rule, Message: msg})
}

// Warn records a warning entry
func (s *Sink) Warn(ctx context.Context, event Event, path, rule, msg string) {
	s.Emit(ctx, Entry{Level: zerolog.WarnLevel, Event: event, Path: path, Rule: rule, Message: msg})
}

// Error records err as an error entry
func (s *Sink) Error(ctx context.Context, path, rule string, err error) {
	s.Emit(ctx, Entry{Level: zerolog.ErrorLevel, Event: EventError, Path: path, Rule: rule, Message: err.Error()})
}

// 🖨️ FormatEntry renders e as a single colored console line
func FormatEntry(e Entry) string {
	var symbol string
	switch {
	case e.Level >= zerolog.ErrorLevel:
		symbol = color.RedString("✗")
	case e.Level == zerolog.WarnLevel:
		symbol = color.YellowString("!")
	case e.Event == EventStep || e.Event == EventRuleMatched:
		symbol = color.GreenString("✓")
	case e.Event == EventWatchStarted || e.Event == EventWatchStopped:
		symbol = color.MagentaString("◆")
	default:
		symbol = color.HiBlackString("•")
	}

	name := filepath.Base(e.Path)
	if e.Path == "" {
		name = "-"
	}
	rule := e.Rule
	if rule == "" {
		rule = "-"
	}

	return fmt.Sprintf("%*s%s %s %s %s %s %s",
		indent, "",
		color.New(color.Faint).Sprint(e.Time.Format("15:04:05")),
		symbol,
		color.CyanString("%-*s", eventWidth, string(e.Event)),
		fmt.Sprintf("%-*s", nameWidth, name),
		color.BlueString("%-*s", ruleWidth, rule),
		e.Message,
	)
}

// 🏭 NewLogger builds the process logger; pretty selects the console writer
func NewLogger(w io.Writer, level zerolog.Level, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}
