package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashContent returns the hex SHA-256 of content, or "" for empty content.
func HashContent(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashFacts hashes the canonical JSON encoding of v. Map keys are encoded in
// sorted order, so equal facts always hash the same.
func HashFacts(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return HashContent(data), nil
}
