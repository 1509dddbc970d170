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
	"context"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// LoadDocument loads a document from the given path.
// The format is determined by the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL
//
// A missing file yields the default document. Invalid settings fail the
// load; invalid or duplicate rules are dropped and logged so the valid ones
// still apply.
func LoadDocument(ctx context.Context, path string) (*Document, error) {
	doc, _, err := loadDocument(ctx, path)
	return doc, err
}

// loadDocument also reports how many rules were dropped
func loadDocument(ctx context.Context, path string) (*Document, int, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading document")

	codec, err := GetCodec(path)
	if err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Str("path", path).Msg("no document yet, using defaults")
			return DefaultDocument(), 0, nil
		}
		return nil, 0, errors.Errorf("reading document: %w", err)
	}

	doc, err := codec.Decode(ctx, data, path)
	if err != nil {
		return nil, 0, err
	}

	if err := doc.Settings.Validate(); err != nil {
		return nil, 0, errors.Errorf("validating settings: %w", err)
	}

	problems := doc.DropInvalidRules()
	for _, p := range problems {
		logger.Warn().Err(p).Str("path", path).Msg("skipping invalid rule")
	}

	return doc, len(problems), nil
}

// EncodeDocument renders doc in the format implied by path
func EncodeDocument(ctx context.Context, path string, doc *Document) ([]byte, error) {
	codec, err := GetCodec(path)
	if err != nil {
		return nil, err
	}
	return codec.Encode(ctx, doc)
}
