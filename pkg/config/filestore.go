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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/rules"
)

// 💾 FileStore persists the document to a single file and implements
// rules.Persister. Settings and rules share the file, so every write is a
// read-modify-write of the whole document.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ rules.Persister = (*FileStore)(nil)

// 🏭 NewFileStore creates a store for the document at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location
func (f *FileStore) Path() string {
	return f.path
}

// LoadDocument reads the document as stored, without environment overrides.
// An unreadable document is copied to <path>.bak before the error is returned.
func (f *FileStore) LoadDocument(ctx context.Context) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, _, err := f.load(ctx)
	return doc, err
}

// load returns the document and how many invalid rules were left out of it
func (f *FileStore) load(ctx context.Context) (*Document, int, error) {
	doc, dropped, err := loadDocument(ctx, f.path)
	if err == nil {
		return doc, dropped, nil
	}

	if errors.Is(err, ErrUnsupportedFormat) {
		return nil, 0, err
	}

	if berr := backupFile(f.path); berr != nil {
		zerolog.Ctx(ctx).Error().Err(berr).Str("path", f.path).Msg("backing up unreadable document failed")
	} else {
		zerolog.Ctx(ctx).Warn().Err(err).Str("backup", f.path+".bak").Msg("document unreadable, saved a backup")
	}
	return nil, 0, errors.Errorf("loading %s: %w", f.path, err)
}

// Load returns the stored rules
func (f *FileStore) Load(ctx context.Context) ([]rules.Rule, error) {
	doc, err := f.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

// Save replaces the stored rules and keeps the stored settings
func (f *FileStore) Save(ctx context.Context, rs []rules.Rule) error {
	return f.update(ctx, func(doc *Document) {
		doc.Rules = rs
	})
}

// LoadSettings returns the stored settings with DROPZONE_* overrides applied
func (f *FileStore) LoadSettings(ctx context.Context) (Settings, error) {
	doc, err := f.LoadDocument(ctx)
	if err != nil {
		return DefaultSettings(), err
	}
	return ApplyEnv(doc.Settings)
}

// SaveSettings validates and stores s, keeping the stored rules
func (f *FileStore) SaveSettings(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return errors.Errorf("saving settings: %w", err)
	}
	return f.update(ctx, func(doc *Document) {
		doc.Settings = s
	})
}

// update applies fn to the stored document and writes it back. A document
// that cannot be read was already backed up, so it is replaced by defaults.
// A document whose invalid rules were skipped is backed up before the write.
func (f *FileStore) update(ctx context.Context, fn func(doc *Document)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, dropped, err := f.load(ctx)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return err
		}
		doc = DefaultDocument()
	}

	// rewriting would lose the rules that were skipped on load
	if dropped > 0 {
		if err := backupFile(f.path); err != nil {
			return errors.Errorf("backing up document before dropping %d invalid rules: %w", dropped, err)
		}
		zerolog.Ctx(ctx).Warn().Int("dropped", dropped).Str("backup", f.path+".bak").Msg("invalid rules removed, saved a backup")
	}

	fn(doc)

	data, err := EncodeDocument(ctx, f.path, doc)
	if err != nil {
		return errors.Errorf("encoding document: %w", err)
	}

	if err := writeFileAtomic(f.path, data); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("path", f.path).Int("rules", len(doc.Rules)).Msg("document saved")
	return nil
}

// writeFileAtomic writes through a temp file in the same directory and renames it into place
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// backupFile copies path to path.bak; a missing file is not an error
func backupFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Errorf("opening file for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".bak")
	if err != nil {
		return errors.Errorf("creating backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Errorf("copying backup: %w", err)
	}
	return nil
}
