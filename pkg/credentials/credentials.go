// Package credentials keeps bot account passwords outside the roster.
//
// A Manager asks a chain of backends in order: the OS keyring, then an
// encrypted vault file in the data directory, then the IG_USERNAME and
// IG_PASSWORD environment pair. Roster rows that leave the password empty
// are completed through Manager.Resolve.
package credentials

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("no stored password")
	ErrReadOnly    = errors.New("credential backend is read-only")
	ErrNoUsername  = errors.New("bot username is required")
	ErrNoPassword  = errors.New("bot password is required")
	ErrUnavailable = errors.New("credential backend unavailable")
)

// Account is one bot login
type Account struct {
	Username string
	Password string
	Updated  time.Time
}

// Backend is one place bot passwords can live
type Backend interface {
	Name() string
	Get(username string) (*Account, error)
	Put(account Account) error
	Remove(username string) error
	// List returns the accounts the backend can enumerate
	List() ([]Account, error)
}

// Backend chains accepted by NewManager
const (
	ModeAuto    = "auto"
	ModeKeyring = "keyring"
	ModeFile    = "file"
	ModeEnv     = "env"
)

// Manager resolves bot passwords through an ordered backend chain
type Manager struct {
	backends []Backend
	env      *EnvBackend
}

// NewManager builds the chain for mode. In auto mode a keyring that cannot
// be reached is left out instead of failing.
func NewManager(mode, dataDir string) (*Manager, error) {
	var backends []Backend

	switch mode {
	case ModeAuto, ModeKeyring:
		kr, err := OpenKeyring()
		switch {
		case err == nil:
			backends = append(backends, kr)
		case mode == ModeKeyring:
			return nil, err
		}
	case ModeFile, ModeEnv:
	default:
		return nil, fmt.Errorf("unknown credential store %q", mode)
	}

	if mode == ModeAuto || mode == ModeFile {
		v, err := OpenVault(dataDir)
		if err != nil {
			return nil, err
		}
		backends = append(backends, v)
	}

	if mode == ModeAuto || mode == ModeEnv {
		backends = append(backends, NewEnvBackend())
	}

	return NewManagerWithBackends(backends...), nil
}

// NewManagerWithBackends creates a Manager over an explicit chain
func NewManagerWithBackends(backends ...Backend) *Manager {
	m := &Manager{backends: backends}
	for _, b := range backends {
		if env, ok := b.(*EnvBackend); ok {
			m.env = env
		}
	}
	return m
}

// Save writes the login to the first backend that accepts it and returns
// that backend's name
func (m *Manager) Save(username, password string) (string, error) {
	if username == "" {
		return "", ErrNoUsername
	}
	if password == "" {
		return "", ErrNoPassword
	}

	account := Account{Username: username, Password: password, Updated: time.Now()}
	var errs []error
	for _, b := range m.backends {
		err := b.Put(account)
		if err == nil {
			return b.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	if len(errs) == 0 {
		return "", ErrUnavailable
	}
	return "", errors.Join(errs...)
}

// Lookup returns the first stored login for username
func (m *Manager) Lookup(username string) (*Account, error) {
	for _, b := range m.backends {
		if a, err := b.Get(username); err == nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrNotFound, username)
}

// Resolve completes a partial login pair. An empty password is looked up
// by username; an empty username takes the environment pair.
func (m *Manager) Resolve(username, password string) (string, string, error) {
	switch {
	case username != "" && password != "":
		return username, password, nil
	case username == "":
		if m.env == nil {
			return "", "", ErrNotFound
		}
		a, err := m.env.Get("")
		if err != nil {
			return "", "", err
		}
		return a.Username, a.Password, nil
	}

	a, err := m.Lookup(username)
	if err != nil {
		return "", "", err
	}
	return a.Username, a.Password, nil
}

// List merges every backend's accounts by username, newest first wins,
// sorted by username
func (m *Manager) List() []Account {
	byName := make(map[string]Account)
	for _, b := range m.backends {
		accounts, err := b.List()
		if err != nil {
			continue
		}
		for _, a := range accounts {
			if seen, ok := byName[a.Username]; !ok || a.Updated.After(seen.Updated) {
				byName[a.Username] = a
			}
		}
	}

	out := make([]Account, 0, len(byName))
	for _, a := range byName {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Account) int { return strings.Compare(a.Username, b.Username) })
	return out
}

// Remove deletes the login from every writable backend holding it
func (m *Manager) Remove(username string) error {
	removed := false
	for _, b := range m.backends {
		if err := b.Remove(username); err == nil {
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("%w for %s", ErrNotFound, username)
	}
	return nil
}

// Mask hides all but the ends of a password for display
func Mask(password string) string {
	if len(password) <= 6 {
		return "********"
	}
	return password[:2] + "..." + password[len(password)-2:]
}
