package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID is an opaque record identifier.
// Users and complaints use short sequence IDs ("1", "2", ...);
// events and audit entries use random UUIDs.
type ID string

// NewID generates a new random ID
func NewID() ID {
	return ID(uuid.New().String())
}

// SequenceID returns the ID for the n-th record of a store (1-based).
func SequenceID(n int) ID {
	return ID(strconv.Itoa(n))
}

// ParseID parses a string into an ID
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("invalid ID: empty")
	}
	if strings.ContainsAny(s, "/?#") {
		return "", fmt.Errorf("invalid ID: %q", s)
	}
	return ID(s), nil
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsZero checks if the ID is empty
func (id ID) IsZero() bool {
	return id == ""
}
