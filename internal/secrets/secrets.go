// Package secrets abstracts the OS keyring (or equivalent) used to hold
// remote sync credentials.
//
// The storage layer only ever talks to the Store interface. When no
// keyring is available the config layer degrades to keeping credentials
// in the plaintext secrets file rather than losing them; see the
// migration logic in package config.
package secrets

import "errors"

// Named secrets. One entry per remote credential type.
const (
	// KeyWebdavPassword is the WebDAV remote-storage password.
	KeyWebdavPassword = "webdav-password"
	// KeyCloudToken is the cloud backend access token.
	KeyCloudToken = "cloud-token"
)

// ErrNotFound is returned by Get when no secret is stored under a key.
var ErrNotFound = errors.New("secret not found")

// Store is the abstract secret store consumed by this layer.
type Store interface {
	// Get returns the secret stored under key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes the secret under key. Deleting an absent key is
	// not an error.
	Delete(key string) error
}
