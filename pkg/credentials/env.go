package credentials

import "os"

// Environment variables holding a single bot login pair
const (
	EnvUsername = "IG_USERNAME"
	EnvPassword = "IG_PASSWORD"
)

// EnvBackend reads one login from IG_USERNAME and IG_PASSWORD. It never
// writes.
type EnvBackend struct{}

func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

func (*EnvBackend) Name() string { return "environment" }

// Get returns the pair when username is empty or names the environment bot
func (*EnvBackend) Get(username string) (*Account, error) {
	user, pass := os.Getenv(EnvUsername), os.Getenv(EnvPassword)
	if user == "" || pass == "" || (username != "" && username != user) {
		return nil, ErrNotFound
	}
	return &Account{Username: user, Password: pass}, nil
}

func (*EnvBackend) Put(Account) error { return ErrReadOnly }

func (*EnvBackend) Remove(string) error { return ErrReadOnly }

func (e *EnvBackend) List() ([]Account, error) {
	a, err := e.Get("")
	if err != nil {
		return nil, nil
	}
	return []Account{*a}, nil
}
