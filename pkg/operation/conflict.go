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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dropzone/pkg/rename"
)

// MaxConflictAttempts bounds the _NNN suffix search
const MaxConflictAttempts = 1000

// ErrConflictLimit is returned when every suffixed name up to MaxConflictAttempts is taken
var ErrConflictLimit = errors.Base("no free file name")

// 🔀 ResolveConflict returns target if nothing exists there, otherwise the
// first free name with _001, _002, ... inserted before the extension.
func ResolveConflict(target string) (string, error) {
	free, err := isFree(target)
	if err != nil {
		return "", err
	}
	if free {
		return target, nil
	}

	dir := filepath.Dir(target)
	name, ext := rename.SplitName(target)

	for i := 1; i <= MaxConflictAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", name, i, ext))
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}

	return "", errors.Errorf("%w: %s after %d attempts", ErrConflictLimit, target, MaxConflictAttempts)
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, errors.Errorf("checking %s: %w", path, err)
}
