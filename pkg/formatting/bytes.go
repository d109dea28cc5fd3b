// Package formatting renders and parses the human-readable values used in
// configuration files and CLI output.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with base-1024 units, e.g. 1572864 at precision 1
// is "1.5 MB". Byte counts below 1 KB are always printed as integers.
func FormatBytes(n int64, precision int) string {
	if n > -1024 && n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}

	v := float64(n)
	i := 0
	for math.Abs(v) >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}

	return strconv.FormatFloat(v, 'f', max(precision, 0), 64) + " " + units[i]
}

// ParseBytes parses sizes such as "16MB", "5 mb", "512KiB" or "2048".
// Units are base-1024 and case-insensitive; a bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	num, unit := s, ""
	if i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' }); i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}
	if num == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	unit = strings.ToUpper(unit)
	if len(unit) == 3 && strings.HasSuffix(unit, "IB") {
		unit = unit[:1] + "B"
	}
	if unit == "" {
		unit = "B"
	}

	exp := slices.Index(units, unit)
	if exp < 0 {
		return 0, fmt.Errorf("unknown byte size unit %q", unit)
	}

	size := value * math.Pow(1024, float64(exp))
	if size >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows int64", s)
	}
	return int64(size), nil
}
