package credentials

import "sync"

// memBackend is an in-memory Backend with injectable write failures
type memBackend struct {
	name   string
	putErr error

	mu       sync.Mutex
	accounts map[string]Account
}

func newMemBackend(name string) *memBackend {
	return &memBackend{name: name, accounts: make(map[string]Account)}
}

func (m *memBackend) Name() string { return m.name }

func (m *memBackend) Get(username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memBackend) Put(a Account) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Username] = a
	return nil
}

func (m *memBackend) Remove(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *memBackend) List() ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}
