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
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// copyFileExclusive copies src to dst and fails if dst already exists
func copyFileExclusive(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Errorf("checking source file: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		os.Remove(dst)
		return errors.Errorf("copying file: %w", err)
	}

	if err := destination.Close(); err != nil {
		os.Remove(dst)
		return errors.Errorf("closing destination file: %w", err)
	}

	// keep the modification time so the copy sorts like the original
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return errors.Errorf("setting destination times: %w", err)
	}
	return nil
}

// moveFile moves src to dst without ever replacing an existing dst. A hard
// link plus remove is used on the same filesystem; otherwise, e.g. across
// devices, it falls back to an exclusive copy and remove.
func moveFile(ctx context.Context, src, dst string) error {
	linkErr := os.Link(src, dst)
	if linkErr == nil {
		if err := os.Remove(src); err != nil {
			_ = os.Remove(dst)
			return errors.Errorf("removing source after link: %w", err)
		}
		return nil
	}

	if errors.Is(linkErr, fs.ErrExist) {
		return errors.Errorf("moving file: target appeared: %w", linkErr)
	}

	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return errors.Errorf("moving file: %w", linkErr)
	}

	zerolog.Ctx(ctx).Debug().Err(linkErr).Str("from", src).Str("to", dst).Msg("link failed, copying instead")

	if err := copyFileExclusive(src, dst); err != nil {
		return errors.Errorf("moving file: link failed (%v), copy failed: %w", linkErr, err)
	}
	if err := os.Remove(src); err != nil {
		return errors.Errorf("removing source after copy: %w", err)
	}
	return nil
}
