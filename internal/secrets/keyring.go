package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// service is the keyring service name all Mindwtr secrets live under.
const service = "mindwtr"

// Keyring stores secrets in the OS keyring (Secret Service on Linux,
// Keychain on macOS, Credential Manager on Windows).
type Keyring struct{}

var _ Store = Keyring{}

// NewKeyring returns the OS keyring backed store.
func NewKeyring() Keyring { return Keyring{} }

func (Keyring) Get(key string) (string, error) {
	v, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read secret %s: %w", key, err)
	}
	return v, nil
}

func (Keyring) Set(key, value string) error {
	if err := keyring.Set(service, key, value); err != nil {
		return fmt.Errorf("failed to store secret %s: %w", key, err)
	}
	return nil
}

func (Keyring) Delete(key string) error {
	err := keyring.Delete(service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete secret %s: %w", key, err)
	}
	return nil
}
