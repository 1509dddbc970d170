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

package readiness

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📊 Reason explains why a file is or is not ready
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInvalidPath
	ReasonTemporaryFile
	ReasonFileNotFound
	ReasonFileNotAccessible
)

// String returns a string representation of Reason
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInvalidPath:
		return "invalid_path"
	case ReasonTemporaryFile:
		return "temporary_file"
	case ReasonFileNotFound:
		return "file_not_found"
	case ReasonFileNotAccessible:
		return "file_not_accessible"
	default:
		return "unknown"
	}
}

// 📄 Result is the outcome of a single readiness check
type Result struct {
	Ready   bool
	Reason  Reason
	Message string
}

// partial-download and torrent client suffixes
var defaultTemporaryExtensions = []string{
	".crdownload",
	".part",
	".partial",
	".download",
	".tmp",
	".temp",
	".!ut",
	".!qb",
	".!bt",
	".bc!",
	".opdownload",
	".aria2",
	".filepart",
	".dlpart",
	".td",
	".xltd",
	".azdownload",
	".unconfirmed",
}

// 🔎 Checker classifies paths as ready, temporary, missing or locked
type Checker struct {
	temporary       map[string]struct{}
	detectTemporary bool
}

// 🔧 CheckerOption configures a Checker
type CheckerOption func(*Checker)

// WithTemporaryDetection turns the temporary extension check on or off
func WithTemporaryDetection(enabled bool) CheckerOption {
	return func(c *Checker) {
		c.detectTemporary = enabled
	}
}

// 🏭 NewChecker creates a checker using the built-in temporary extension list
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		temporary:       make(map[string]struct{}, len(defaultTemporaryExtensions)),
		detectTemporary: true,
	}
	for _, ext := range defaultTemporaryExtensions {
		c.temporary[ext] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TemporaryExtensions returns the extensions treated as in-progress downloads
func TemporaryExtensions() []string {
	out := make([]string, len(defaultTemporaryExtensions))
	copy(out, defaultTemporaryExtensions)
	return out
}

// IsTemporary reports whether path carries a temporary download extension
func (c *Checker) IsTemporary(path string) bool {
	_, ok := c.temporary[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ✅ Check classifies path.
//
// A file is only reported ready after it has been opened for reading and
// writing; any error on the way is reported as not accessible.
func (c *Checker) Check(path string) Result {
	if strings.TrimSpace(path) == "" || strings.ContainsRune(path, 0) {
		return Result{Reason: ReasonInvalidPath, Message: "path is empty or malformed"}
	}

	if c.detectTemporary && c.IsTemporary(path) {
		return Result{
			Reason:  ReasonTemporaryFile,
			Message: "file has a temporary extension " + strings.ToLower(filepath.Ext(path)),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Reason: ReasonFileNotFound, Message: "file does not exist"}
		}
		return Result{Reason: ReasonFileNotAccessible, Message: "cannot stat file: " + err.Error()}
	}

	if info.IsDir() {
		return Result{Reason: ReasonInvalidPath, Message: "path is a directory"}
	}

	if err := openForAccess(path); err != nil {
		return Result{Reason: ReasonFileNotAccessible, Message: err.Error()}
	}

	return Result{Ready: true, Reason: ReasonNone, Message: "file is ready"}
}

// openForAccess opens path read-write and probes for a conflicting lock
func openForAccess(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if err := probeLock(f); err != nil {
		return errors.Errorf("file is locked: %w", err)
	}
	return nil
}
