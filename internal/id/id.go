package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ResponsePrefix tags response ids.
const ResponsePrefix = "rsp"

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "rsp-V1StGXR8_Z5jdHi6B-myT")
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewResponseID returns a fresh response id.
func NewResponseID() (string, error) {
	return Generate(ResponsePrefix)
}

// NewInviteID returns a fresh invite id. Invite ids appear in guest links,
// so they are random UUIDs.
func NewInviteID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return u.String(), nil
}
