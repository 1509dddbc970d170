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
	"encoding/json"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔧 JSONCodec implements the Codec interface for JSON files
type JSONCodec struct{}

func init() {
	Register(&JSONCodec{})
}

// 🔍 CanParse checks if this codec can handle the given file
func (c *JSONCodec) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(filename)), ".json")
}

// 📝 Decode parses the document from JSON bytes
func (c *JSONCodec) Decode(ctx context.Context, data []byte, filename string) (*Document, error) {
	doc := DefaultDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(doc); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return doc, nil
}

// 💾 Encode renders the document as indented JSON
func (c *JSONCodec) Encode(ctx context.Context, doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Errorf("encoding JSON: %w", err)
	}
	return append(data, '\n'), nil
}
