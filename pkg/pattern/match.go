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

// Package pattern decides whether a file name matches a rule's glob pattern.
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// 🔍 IsMatch reports whether filename matches pattern.
//
// Matching is case-insensitive and anchored at both ends. '*' matches any run
// of characters and '?' exactly one; every other character, including '[',
// ']' and '\', is literal. A single brace list such as
// "photo.{jpg,png}" expands into one alternative per entry; the name matches
// when any alternative does. Malformed brace lists never match.
func IsMatch(pattern, filename string) bool {
	if filename == "" {
		return false
	}

	alternatives, ok := expand(normalize(pattern))
	if !ok {
		return false
	}

	name := strings.ToLower(filename)
	for _, alt := range alternatives {
		matched, err := doublestar.Match(literal.Replace(alt), name)
		if err != nil {
			return false
		}
		if matched {
			return true
		}
	}
	return false
}

// ✅ IsValidPattern reports whether pattern compiles without running a match.
func IsValidPattern(pattern string) bool {
	alternatives, ok := expand(normalize(pattern))
	if !ok {
		return false
	}
	for _, alt := range alternatives {
		if !doublestar.ValidatePattern(literal.Replace(alt)) {
			return false
		}
	}
	return true
}

// literal escapes the characters doublestar treats as classes or escapes
var literal = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func normalize(pattern string) string {
	return strings.ToLower(strings.TrimSpace(pattern))
}

// expand resolves brace lists left to right. Each list must be closed, must not
// nest, and must contain at least one non-empty entry.
func expand(pattern string) ([]string, bool) {
	if pattern == "" {
		return nil, false
	}

	open := strings.IndexByte(pattern, '{')
	closing := strings.IndexByte(pattern, '}')

	switch {
	case open < 0 && closing < 0:
		return []string{pattern}, true
	case open < 0 || closing < 0 || closing < open:
		return nil, false
	}

	body := pattern[open+1 : closing]
	if strings.ContainsRune(body, '{') {
		return nil, false
	}

	prefix, suffix := pattern[:open], pattern[closing+1:]

	var out []string
	for _, entry := range strings.Split(body, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rest, ok := expand(prefix + entry + suffix)
		if !ok {
			return nil, false
		}
		out = append(out, rest...)
	}

	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
