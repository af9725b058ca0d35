package storage

import (
	"bytes"
	"unicode/utf8"
)

// LooksBinary reports whether data is unlikely to be text: it holds a NUL
// byte or is not valid UTF-8 apart from a rune cut off at the end.
func LooksBinary(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(TrimPartialRune(data))
}

// TrimPartialRune drops a trailing incomplete UTF-8 sequence left by a
// truncated read.
func TrimPartialRune(data []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(data); i++ {
		if utf8.Valid(data[:len(data)-i]) {
			return data[:len(data)-i]
		}
	}
	return data
}
