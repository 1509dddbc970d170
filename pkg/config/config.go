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

package config

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/dropzone/pkg/rules"
)

// ErrUnsupportedFormat is returned for a document path with an unknown extension
var ErrUnsupportedFormat = errors.Base("unsupported document format")

// 📚 Document is everything dropzone persists: settings plus the ordered rules
type Document struct {
	Settings Settings     `json:"settings" yaml:"settings"`
	Rules    []rules.Rule `json:"rules" yaml:"rules"`
}

// 🏭 DefaultDocument returns default settings and no rules
func DefaultDocument() *Document {
	return &Document{Settings: DefaultSettings()}
}

// 🔍 Validate checks the settings and every rule
func (d *Document) Validate() error {
	if err := d.Settings.Validate(); err != nil {
		return errors.Errorf("validating settings: %w", err)
	}
	if problems := checkRules(d.Rules, nil); len(problems) > 0 {
		return errors.Errorf("validating rules: %w", problems[0])
	}
	return nil
}

// DropInvalidRules removes rules that fail validation or repeat an earlier
// name, keeping the rest in order, and returns why each was removed
func (d *Document) DropInvalidRules() []error {
	var kept []rules.Rule
	problems := checkRules(d.Rules, func(r rules.Rule) { kept = append(kept, r) })
	if len(problems) > 0 {
		d.Rules = kept
	}
	return problems
}

func checkRules(rs []rules.Rule, keep func(rules.Rule)) []error {
	var problems []error
	seen := make(map[string]bool, len(rs))
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			problems = append(problems, err)
			continue
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			problems = append(problems, errors.Errorf("%w: duplicate name %q", rules.ErrInvalidRule, r.Name))
			continue
		}
		seen[key] = true
		if keep != nil {
			keep(r)
		}
	}
	return problems
}

// 🔌 Codec reads and writes a document in one file format
type Codec interface {
	// 🔍 CanParse checks if this codec handles the given file
	CanParse(filename string) bool

	// 📝 Decode parses a document; fields it does not mention keep their defaults
	Decode(ctx context.Context, data []byte, filename string) (*Document, error)

	// 💾 Encode renders a document
	Encode(ctx context.Context, doc *Document) ([]byte, error)
}

var (
	// 🗺️ codecs is a list of available codecs
	codecs []Codec
)

// 📝 Register registers a codec
func Register(c Codec) {
	codecs = append(codecs, c)
}

// 🎯 GetCodec returns a codec that can handle the given file
func GetCodec(filename string) (Codec, error) {
	for _, c := range codecs {
		if c.CanParse(filename) {
			return c, nil
		}
	}
	return nil, errors.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// 🔧 YAMLCodec implements the Codec interface for YAML files
type YAMLCodec struct{}

func init() {
	Register(&YAMLCodec{})
}

func (c *YAMLCodec) CanParse(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func (c *YAMLCodec) Decode(ctx context.Context, data []byte, filename string) (*Document, error) {
	doc := DefaultDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(doc); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return doc, nil
}

func (c *YAMLCodec) Encode(ctx context.Context, doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}
