package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// GenerateEnvID creates a deterministic hash from a fingerprint for environment caching.
func GenerateEnvID(fingerprint map[string]string) string {
	// Sort keys for deterministic ordering
	keys := make([]string, 0, len(fingerprint))
	for key := range fingerprint {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	// Build deterministic string
	var builder strings.Builder
	for _, key := range keys {
		value := fingerprint[key]
		builder.WriteString(key)
		builder.WriteString(":")
		builder.WriteString(value)
		builder.WriteString(";")
	}

	// Hash the string
	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}
