package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// DateLayout is the day-first layout used in exported sheets and file names.
	DateLayout     = "02-01-2006"
	DateTimeLayout = "02-01-2006 15:04:05"
	FileDateLayout = "02_01_2006"
)

// Layouts DataJud has been observed to emit. Naive values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102150405",
	"2006-01-02",
	"02/01/2006 15:04:05",
}

// ParseTimestamp parses a DataJud timestamp and normalizes it to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ParseTimestampOrZero is ParseTimestamp with the zero time on failure.
func ParseTimestampOrZero(value string) time.Time {
	t, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}

// NormalizeCaseNumber keeps only the digits of a case number, so
// "0000000-00.0000.0.00.0000" and "00000000000000000000" are the same key.
func NormalizeCaseNumber(numero string) string {
	var b strings.Builder
	b.Grow(len(numero))
	for _, r := range numero {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ParseInt(valStr string) int {
	if valStr == "" {
		return 0
	}
	val, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		return 0
	}
	return val
}

// SanitizeFileName replaces characters that are not portable in file names.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, name)
	if mapped == "" {
		return "sem_orgao"
	}
	return mapped
}
