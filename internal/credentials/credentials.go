// Package credentials keeps the HTTP API token in the OS credential store
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	credentialService = "fsgate"
	// Key for the HTTP API bearer token
	apiTokenKey = "http_api_token"

	// TokenPrefix marks generated tokens.
	TokenPrefix    = "fsg_"
	minTokenLength = 20
)

// ErrNoToken is returned when no API token is stored.
var ErrNoToken = errors.New("no API token stored - run 'fsgate token generate'")

// CredentialManager handles secure storage and retrieval of the API token
type CredentialManager struct {
	service string
}

// NewCredentialManager creates a new credential manager instance
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		service: credentialService,
	}
}

// GenerateToken returns a fresh random token. It is not stored.
func GenerateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(buf), nil
}

// StoreAPIToken validates token and stores it in the OS credential store.
func (cm *CredentialManager) StoreAPIToken(token string) error {
	if err := ValidateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	if err := keyring.Set(cm.service, apiTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// GetAPIToken retrieves the stored token. ErrNoToken means none is stored.
func (cm *CredentialManager) GetAPIToken() (string, error) {
	token, err := keyring.Get(cm.service, apiTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}

	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// DeleteAPIToken removes the stored token. Deleting a missing token is not
// an error.
func (cm *CredentialManager) DeleteAPIToken() error {
	err := keyring.Delete(cm.service, apiTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasAPIToken checks if a token is stored without returning it.
func (cm *CredentialManager) HasAPIToken() bool {
	_, err := cm.GetAPIToken()
	return err == nil
}

// ValidateTokenFormat accepts tokens of at least 20 printable, non-space
// ASCII characters. Generated tokens always pass; user supplied tokens need
// not carry the prefix.
func ValidateTokenFormat(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if len(token) < minTokenLength {
		return fmt.Errorf("token too short (minimum %d characters)", minTokenLength)
	}
	for _, r := range token {
		if r <= ' ' || r > '~' {
			return fmt.Errorf("token must contain only printable ASCII characters without spaces")
		}
	}
	return nil
}
