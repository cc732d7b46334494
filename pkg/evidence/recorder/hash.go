package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"mercator-hq/jobhook/pkg/evidence"
)

// HashContent computes the hex-encoded SHA-256 of content.
// Returns an empty string if content is empty.
func HashContent(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashString hashes a string with HashContent.
func HashString(content string) string {
	return HashContent([]byte(content))
}

// HashRecord computes the integrity hash of a record: the SHA-256 of its
// JSON encoding with RecordHash cleared. RecordedTime is included.
func HashRecord(record *evidence.DecisionRecord) (string, error) {
	c := *record
	c.RecordHash = ""
	body, err := json.Marshal(&c)
	if err != nil {
		return "", err
	}
	return HashContent(body), nil
}

// VerifyRecord reports whether the record's RecordHash matches its content.
func VerifyRecord(record *evidence.DecisionRecord) bool {
	if record.RecordHash == "" {
		return false
	}
	h, err := HashRecord(record)
	return err == nil && h == record.RecordHash
}
