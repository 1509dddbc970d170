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

// Package rename expands rename templates such as "{date}_{filename}" into
// concrete file names.
package rename

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default formats used when a token carries no format or an invalid one.
const (
	DefaultDateFormat     = "yyyy-MM-dd"
	DefaultTimeFormat     = "HH-mm-ss"
	DefaultDateTimeFormat = "yyyyMMdd_HHmmss"
	DefaultCounterFormat  = "000"
)

var tokenPattern = regexp.MustCompile(`\{([A-Za-z]+)(?::([^{}]*))?\}`)

// 🔤 Processor expands rename templates
type Processor struct {
	seq           Sequence
	now           func() time.Time
	newUUID       func() string
	counterFormat string
}

// 🔧 Option configures a Processor
type Option func(*Processor)

// WithSequence sets the source of {counter} values
func WithSequence(seq Sequence) Option {
	return func(p *Processor) {
		p.seq = seq
	}
}

// WithClock sets the time source used by Process
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// WithCounterFormat sets the format used by a bare {counter} token
func WithCounterFormat(format string) Option {
	return func(p *Processor) {
		if _, ok := FormatNumber(0, format); ok {
			p.counterFormat = format
		}
	}
}

// WithUUIDSource sets the generator behind {guid} and {guidfull}
func WithUUIDSource(gen func() string) Option {
	return func(p *Processor) {
		p.newUUID = gen
	}
}

// 🏭 New creates a processor; without options it uses DefaultSequence and the wall clock
func New(opts ...Option) *Processor {
	p := &Processor{
		seq:           DefaultSequence,
		now:           time.Now,
		newUUID:       uuid.NewString,
		counterFormat: DefaultCounterFormat,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// 📝 Process expands template for sourcePath at the current time
func (p *Processor) Process(template, sourcePath string) string {
	return p.ProcessAt(template, sourcePath, p.now())
}

// 📝 ProcessAt expands template for sourcePath using now for date and time tokens.
//
// The original extension is appended when the expanded name does not already
// end with it. The result is always a single path element: separators become
// '_', and a name that would be empty, "." or ".." falls back to the source's
// base name.
func (p *Processor) ProcessAt(template, sourcePath string, now time.Time) string {
	name, ext := SplitName(sourcePath)

	var (
		counter    int64
		hasCounter bool
	)

	out := tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		groups := tokenPattern.FindStringSubmatch(token)
		key, format := strings.ToLower(groups[1]), groups[2]
		hasFormat := strings.Contains(token, ":")

		switch key {
		case "filename":
			return name
		case "extension":
			return strings.TrimPrefix(ext, ".")
		case "fullextension":
			return ext
		case "date":
			return formatDateOr(now, format, hasFormat, DefaultDateFormat)
		case "time":
			return formatDateOr(now, format, hasFormat, DefaultTimeFormat)
		case "datetime":
			return formatDateOr(now, format, hasFormat, DefaultDateTimeFormat)
		case "counter":
			if !hasCounter {
				counter = p.seq.Next()
				hasCounter = true
			}
			if hasFormat {
				if s, ok := FormatNumber(counter, format); ok {
					return s
				}
			}
			s, _ := FormatNumber(counter, p.counterFormat)
			return s
		case "guid":
			return shortID(p.newUUID())
		case "guidfull":
			return p.newUUID()
		default:
			return token
		}
	})

	out = separators.Replace(out)
	if ext != "" && !strings.HasSuffix(strings.ToLower(out), strings.ToLower(ext)) {
		out += ext
	}
	if strings.Trim(out, ".") == "" {
		return filepath.Base(sourcePath)
	}
	return out
}

var separators = strings.NewReplacer("/", "_", `\`, "_")

// SplitName returns the base name of path without its extension, and the
// extension including the dot. Dot files such as ".env" have no extension.
func SplitName(path string) (name, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	name = strings.TrimSuffix(base, ext)
	if name == "" {
		return base, ""
	}
	return name, ext
}

func formatDateOr(now time.Time, format string, hasFormat bool, fallback string) string {
	if hasFormat {
		if s, ok := FormatDate(now, format); ok {
			return s
		}
	}
	s, _ := FormatDate(now, fallback)
	return s
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
