package common

import "unicode/utf8"

// TruncatePrefix returns the first n characters of s. Truncation lands on a
// rune boundary, never inside a multi-byte sequence.
func TruncatePrefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
