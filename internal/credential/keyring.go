// Package credential stores the admin bearer token in the system
// keyring and inspects it client-side.
package credential

import (
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "marketdesk"

// KeyAPIToken is the keyring entry holding the admin bearer token.
const KeyAPIToken = "api-token"

// ring opens the keyring once per process. Some backends prompt the
// user on open, so reopening per call would prompt repeatedly.
var ring = sync.OnceValues(func() (keyring.Keyring, error) {
	r, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/marketdesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("marketdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return r, nil
})

// Get retrieves a credential by key.
func Get(key string) (string, error) {
	r, err := ring()
	if err != nil {
		return "", err
	}
	item, err := r.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential by key.
func Set(key, value string) error {
	r, err := ring()
	if err != nil {
		return err
	}
	if err := r.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Deleting a key that is not
// present is not an error at the call sites, but the backend error is
// still surfaced for the caller to ignore.
func Delete(key string) error {
	r, err := ring()
	if err != nil {
		return err
	}
	if err := r.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
