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

package rename

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// characters that may not appear in a generated file name
const invalidNameChars = `/\:*?"<>|`

// 📅 FormatDate renders t with a yyyy/MM/dd/HH/mm/ss style layout.
//
// Supported specifiers: y, M, d, H, h, m, s, f (1-7), t (1-2). Text inside
// single quotes and characters after a backslash are copied literally. Any
// other letter, or a character that cannot appear in a file name, makes the
// layout invalid and ok is false.
func FormatDate(t time.Time, layout string) (out string, ok bool) {
	if layout == "" {
		return "", false
	}

	var b strings.Builder
	runes := []rune(layout)

	for i := 0; i < len(runes); {
		c := runes[i]

		switch {
		case c == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return "", false
			}
			lit := string(runes[i+1 : end])
			if strings.ContainsAny(lit, invalidNameChars) {
				return "", false
			}
			b.WriteString(lit)
			i = end + 1
			continue
		case c == '\\':
			if i+1 >= len(runes) || strings.ContainsRune(invalidNameChars, runes[i+1]) {
				return "", false
			}
			b.WriteRune(runes[i+1])
			i += 2
			continue
		case c < 0x20 || strings.ContainsRune(invalidNameChars, c):
			return "", false
		case !isLetter(c):
			b.WriteRune(c)
			i++
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == c {
			n++
		}
		part, valid := formatSpecifier(t, c, n)
		if !valid {
			return "", false
		}
		b.WriteString(part)
		i += n
	}

	return b.String(), true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func formatSpecifier(t time.Time, c rune, n int) (string, bool) {
	pad := func(v, width int) string {
		return fmt.Sprintf("%0*d", width, v)
	}

	switch c {
	case 'y':
		switch {
		case n == 1:
			return strconv.Itoa(t.Year() % 100), true
		case n == 2:
			return pad(t.Year()%100, 2), true
		default:
			return pad(t.Year(), n), true
		}
	case 'M':
		switch n {
		case 1:
			return strconv.Itoa(int(t.Month())), true
		case 2:
			return pad(int(t.Month()), 2), true
		case 3:
			return t.Month().String()[:3], true
		case 4:
			return t.Month().String(), true
		}
	case 'd':
		switch n {
		case 1:
			return strconv.Itoa(t.Day()), true
		case 2:
			return pad(t.Day(), 2), true
		case 3:
			return t.Weekday().String()[:3], true
		case 4:
			return t.Weekday().String(), true
		}
	case 'H':
		if n <= 2 {
			return pad(t.Hour(), n), true
		}
	case 'h':
		if n <= 2 {
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			return pad(h, n), true
		}
	case 'm':
		if n <= 2 {
			return pad(t.Minute(), n), true
		}
	case 's':
		if n <= 2 {
			return pad(t.Second(), n), true
		}
	case 'f':
		if n <= 7 {
			div := 1
			for i := 0; i < 9-n; i++ {
				div *= 10
			}
			return pad(t.Nanosecond()/div, n), true
		}
	case 't':
		marker := "AM"
		if t.Hour() >= 12 {
			marker = "PM"
		}
		switch n {
		case 1:
			return marker[:1], true
		case 2:
			return marker, true
		}
	}
	return "", false
}

// 🔢 FormatNumber renders n with a "000", "#0" or "Dn" style format.
//
// Zero masks pad to the number of '0' characters; "Dn" pads to n digits.
// Anything else is invalid and ok is false.
func FormatNumber(n int64, format string) (out string, ok bool) {
	if format == "" {
		return "", false
	}

	if format[0] == 'D' || format[0] == 'd' {
		width := 0
		if len(format) > 1 {
			w, err := strconv.Atoi(format[1:])
			if err != nil || w < 0 || w > 32 {
				return "", false
			}
			width = w
		}
		return fmt.Sprintf("%0*d", width, n), true
	}

	width := 0
	for _, c := range format {
		switch c {
		case '0':
			width++
		case '#':
		default:
			return "", false
		}
	}
	return fmt.Sprintf("%0*d", width, n), true
}
