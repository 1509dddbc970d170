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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConflict(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		target   string
		want     string
	}{
		{name: "free", target: "a.txt", want: "a.txt"},
		{name: "first_suffix", existing: []string{"a.txt"}, target: "a.txt", want: "a_001.txt"},
		{name: "second_suffix", existing: []string{"a.txt", "a_001.txt"}, target: "a.txt", want: "a_002.txt"},
		{name: "gap_is_reused", existing: []string{"a.txt", "a_002.txt"}, target: "a.txt", want: "a_001.txt"},
		{name: "no_extension", existing: []string{"Makefile"}, target: "Makefile", want: "Makefile_001"},
		{name: "multi_dot", existing: []string{"a.tar.gz"}, target: "a.tar.gz", want: "a.tar_001.gz"},
		{name: "dotfile", existing: []string{".env"}, target: ".env", want: ".env_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.existing {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
			}

			got, err := ResolveConflict(filepath.Join(dir, tt.target))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestResolveConflictLimit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0644))
	for i := 1; i <= MaxConflictAttempts; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("a_%03d.txt", i)), nil, 0644))
	}

	_, err := ResolveConflict(filepath.Join(dir, "a.txt"))
	assert.ErrorIs(t, err, ErrConflictLimit)
}
