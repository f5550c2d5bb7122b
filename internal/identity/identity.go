// Package identity manages the locally generated placeholder user id the
// draft endpoints accept as a stand-in for real authentication. It is a
// known stopgap: the id carries no verified identity and is only attached
// when no backend session exists.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	configDirName = "draftolio"
	fileName      = "identity.json"
)

// Identity is the persisted placeholder record.
type Identity struct {
	UserID string `json:"user_id"`
}

// DefaultPath returns the identity file path under the user's config
// directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, fileName), nil
}

// Ensure loads the placeholder user id from path, generating and persisting
// a fresh one on first use.
func Ensure(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if jsonErr := json.Unmarshal(data, &id); jsonErr == nil && id.UserID != "" {
			return id.UserID, nil
		}
		// Corrupt file: fall through and regenerate.
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read identity file: %w", err)
	}

	id := Identity{UserID: uuid.NewString()}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	out, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return "", fmt.Errorf("failed to write identity file: %w", err)
	}
	return id.UserID, nil
}
