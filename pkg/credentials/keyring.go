package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService names the igfollow entries in the OS keyring. Each bot is
// one entry whose user is the bot username and whose secret is the password.
const keyringService = "igfollow"

// probeUser is looked up, never stored, to check the keyring is reachable
const probeUser = "igfollow-probe"

// KeyringBackend keeps passwords in the OS keyring (Secret Service,
// macOS Keychain or Windows Credential Manager)
type KeyringBackend struct{}

// OpenKeyring returns the keyring backend when the OS keyring answers. A
// lookup that reports "not found" proves it is reachable without writing.
func OpenKeyring() (*KeyringBackend, error) {
	_, err := keyring.Get(keyringService, probeUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: keyring: %v", ErrUnavailable, err)
	}
	return &KeyringBackend{}, nil
}

func (*KeyringBackend) Name() string { return "keyring" }

func (*KeyringBackend) Get(username string) (*Account, error) {
	if username == "" {
		return nil, ErrNoUsername
	}
	secret, err := keyring.Get(keyringService, username)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Account{Username: username, Password: secret}, nil
}

func (*KeyringBackend) Put(a Account) error {
	if a.Username == "" {
		return ErrNoUsername
	}
	return keyring.Set(keyringService, a.Username, a.Password)
}

func (*KeyringBackend) Remove(username string) error {
	err := keyring.Delete(keyringService, username)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// List is empty: the keyring API cannot enumerate entries
func (*KeyringBackend) List() ([]Account, error) {
	return nil, nil
}
