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
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// moveToTrash moves path into a freedesktop.org trash directory and writes the
// matching .trashinfo record. It returns the trashed file's path.
func moveToTrash(ctx context.Context, trashDir, path string, now time.Time) (string, error) {
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", errors.Errorf("creating trash directory: %w", err)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving path: %w", err)
	}

	target, err := ResolveConflict(filepath.Join(filesDir, filepath.Base(path)))
	if err != nil {
		return "", err
	}
	infoPath := filepath.Join(infoDir, filepath.Base(target)+".trashinfo")

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(abs),
		now.Format("2006-01-02T15:04:05"),
	)

	// the info file is written first and claims the name
	f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", errors.Errorf("creating trash info: %w", err)
	}
	if _, err := f.WriteString(info); err != nil {
		f.Close()
		os.Remove(infoPath)
		return "", errors.Errorf("writing trash info: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(infoPath)
		return "", errors.Errorf("closing trash info: %w", err)
	}

	if err := moveFile(ctx, abs, target); err != nil {
		os.Remove(infoPath)
		return "", errors.Errorf("moving file to trash: %w", err)
	}

	return target, nil
}

func escapeTrashPath(p string) string {
	parts := strings.Split(filepath.ToSlash(p), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
