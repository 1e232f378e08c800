package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a random UUID, optionally prefixed ("dev-<uuid>").
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		return prefix + "-" + id
	}
	return id
}
