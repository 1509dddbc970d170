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

package operation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Templates used by insert_timestamp and insert_sequence_number when a step has none
const (
	DefaultTimestampTemplate = "{datetime:yyyyMMdd_HHmmss}_{filename}"
	DefaultSequenceTemplate  = "{filename}_{counter:000}"
)

// targetName picks the file name for a copy or move
func (e *Engine) targetName(path, template string) string {
	if strings.TrimSpace(template) == "" {
		return filepath.Base(path)
	}
	return e.processor.Process(template, path)
}

// 📋 copy writes a copy into destination; the current path stays on the source
func (e *Engine) copy(ctx context.Context, path, destination, template string) (outcome, error) {
	if strings.TrimSpace(destination) == "" {
		return skipped(path, "no destination, copy skipped"), nil
	}

	if err := os.MkdirAll(destination, 0755); err != nil {
		return skipped(path, ""), errors.Errorf("creating destination directory: %w", err)
	}

	target, err := ResolveConflict(filepath.Join(destination, e.targetName(path, template)))
	if err != nil {
		return skipped(path, ""), err
	}

	if err := copyFileExclusive(path, target); err != nil {
		return skipped(path, ""), err
	}

	return outcome{
		next:    path,
		target:  target,
		applied: true,
		message: fmt.Sprintf("copied to %s", target),
	}, nil
}

// 📦 move relocates the file into destination
func (e *Engine) move(ctx context.Context, path, destination, template string) (outcome, error) {
	if strings.TrimSpace(destination) == "" {
		return skipped(path, "no destination, move skipped"), nil
	}

	if err := os.MkdirAll(destination, 0755); err != nil {
		return skipped(path, ""), errors.Errorf("creating destination directory: %w", err)
	}

	target := filepath.Join(destination, e.targetName(path, template))
	if samePath(path, target) {
		return skipped(path, "already in destination"), nil
	}

	target, err := ResolveConflict(target)
	if err != nil {
		return skipped(path, ""), err
	}

	if err := moveFile(ctx, path, target); err != nil {
		return skipped(path, ""), err
	}

	return outcome{
		next:    target,
		target:  target,
		applied: true,
		message: fmt.Sprintf("moved to %s", target),
	}, nil
}

// ✏️ rename gives the file a new name in its own directory
func (e *Engine) rename(ctx context.Context, path, template string) (outcome, error) {
	if strings.TrimSpace(template) == "" {
		return skipped(path, "no rename template, rename skipped"), nil
	}

	name := e.processor.Process(template, path)
	target := filepath.Join(filepath.Dir(path), name)
	if samePath(path, target) {
		return skipped(path, "name unchanged"), nil
	}

	target, err := ResolveConflict(target)
	if err != nil {
		return skipped(path, ""), err
	}

	if err := moveFile(ctx, path, target); err != nil {
		return skipped(path, ""), err
	}

	return outcome{
		next:    target,
		target:  target,
		applied: true,
		message: fmt.Sprintf("renamed to %s", filepath.Base(target)),
	}, nil
}

// 🗑️ delete removes the file unless a safety gate applies
func (e *Engine) delete(ctx context.Context, path string) (outcome, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return skipped(path, ""), errors.Errorf("checking file before delete: %w", err)
	}

	if e.del.SkipHidden && isHidden(path) {
		logger.Info().Str("path", path).Msg("hidden file, delete skipped")
		return skipped(path, "hidden file, delete skipped"), nil
	}
	if e.del.SkipSystem && isSystem(path) {
		logger.Info().Str("path", path).Msg("system file, delete skipped")
		return skipped(path, "system file, delete skipped"), nil
	}
	if info.Size() > e.del.MaxSizeBytes {
		msg := fmt.Sprintf("file is %d bytes, above the %d byte limit, delete skipped", info.Size(), e.del.MaxSizeBytes)
		logger.Info().Str("path", path).Int64("size", info.Size()).Int64("limit", e.del.MaxSizeBytes).Msg("file too large, delete skipped")
		return skipped(path, msg), nil
	}

	if e.del.UseTrash {
		trashed, err := moveToTrash(ctx, e.del.TrashDir, path, e.now())
		if err != nil {
			return skipped(path, ""), err
		}
		return outcome{target: trashed, applied: true, message: "moved to trash"}, nil
	}

	if err := os.Remove(path); err != nil {
		return skipped(path, ""), errors.Errorf("deleting file: %w", err)
	}
	return outcome{applied: true, message: "deleted"}, nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
