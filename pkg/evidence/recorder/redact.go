package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// HashUsername replaces a username with "sha256:<hex>" so records can be
// correlated per user without storing the name.
// Returns an empty string if the username is empty.
func HashUsername(username string) string {
	if username == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(username))
	return "sha256:" + hex.EncodeToString(hash[:])
}

// TruncateString shortens s to at most maxLen bytes, ending in "..." when
// cut. It never splits a UTF-8 sequence. maxLen <= 0 disables truncation.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}

	suffix := "..."
	if maxLen <= len(suffix) {
		suffix = ""
	}

	cut := maxLen - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
