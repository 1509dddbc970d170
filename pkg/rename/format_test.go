package rename

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 4, 2, 500_000_000, time.UTC)

	tests := []struct {
		name   string
		layout string
		want   string
		ok     bool
	}{
		{name: "iso", layout: "yyyy-MM-dd", want: "2024-03-07", ok: true},
		{name: "short_year", layout: "yy", want: "24", ok: true},
		{name: "unpadded", layout: "M.d H:m", ok: false},
		{name: "unpadded_safe", layout: "M.d H_m", want: "3.7 9_4", ok: true},
		{name: "twelve_hour", layout: "hh tt", want: "09 AM", ok: true},
		{name: "fraction", layout: "ss.fff", want: "02.500", ok: true},
		{name: "escaped_letter", layout: `\T HH`, want: "T 09", ok: true},
		{name: "unterminated_quote", layout: "'abc", ok: false},
		{name: "unknown_letter", layout: "yyyy-Q", ok: false},
		{name: "too_many_hours", layout: "HHH", ok: false},
		{name: "empty", layout: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatDate(ts, tt.layout)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name   string
		n      int64
		format string
		want   string
		ok     bool
	}{
		{name: "three_zeros", n: 7, format: "000", want: "007", ok: true},
		{name: "wider_than_mask", n: 12345, format: "000", want: "12345", ok: true},
		{name: "hash_mask", n: 7, format: "#00", want: "07", ok: true},
		{name: "d_width", n: 7, format: "D5", want: "00007", ok: true},
		{name: "bare_d", n: 7, format: "d", want: "7", ok: true},
		{name: "bad_d", n: 7, format: "Dx", ok: false},
		{name: "letters", n: 7, format: "abc", ok: false},
		{name: "empty", n: 7, format: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatNumber(tt.n, tt.format)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
