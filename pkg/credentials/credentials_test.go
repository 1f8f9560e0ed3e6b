package credentials

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestManagerSaveLookupRemove(t *testing.T) {
	mem := newMemBackend("memory")
	manager := NewManagerWithBackends(mem)

	where, err := manager.Save("lincoln_bot", "hunter22secret")
	require.NoError(t, err)
	assert.Equal(t, "memory", where)

	a, err := manager.Lookup("lincoln_bot")
	require.NoError(t, err)
	assert.Equal(t, "hunter22secret", a.Password)
	assert.False(t, a.Updated.IsZero())

	require.Len(t, manager.List(), 1)

	require.NoError(t, manager.Remove("lincoln_bot"))
	_, err = manager.Lookup("lincoln_bot")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, manager.Remove("lincoln_bot"), ErrNotFound)
}

func TestManagerSaveValidation(t *testing.T) {
	manager := NewManagerWithBackends(newMemBackend("memory"))

	_, err := manager.Save("", "x")
	assert.ErrorIs(t, err, ErrNoUsername)
	_, err = manager.Save("x", "")
	assert.ErrorIs(t, err, ErrNoPassword)

	_, err = NewManagerWithBackends().Save("x", "y")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestManagerSaveFallsThrough(t *testing.T) {
	locked := newMemBackend("locked")
	locked.putErr = errors.New("keyring locked")
	mem := newMemBackend("memory")

	manager := NewManagerWithBackends(locked, NewEnvBackend(), mem)
	where, err := manager.Save("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "memory", where)
	assert.Empty(t, locked.accounts)

	_, err = NewManagerWithBackends(locked, NewEnvBackend()).Save("a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Contains(t, err.Error(), "keyring locked")
}

func TestManagerListKeepsNewest(t *testing.T) {
	older, newer := newMemBackend("older"), newMemBackend("newer")
	require.NoError(t, older.Put(Account{Username: "b_bot", Password: "old", Updated: time.Unix(100, 0)}))
	require.NoError(t, older.Put(Account{Username: "a_bot", Password: "only", Updated: time.Unix(100, 0)}))
	require.NoError(t, newer.Put(Account{Username: "b_bot", Password: "new", Updated: time.Unix(200, 0)}))

	accounts := NewManagerWithBackends(older, newer).List()
	require.Len(t, accounts, 2)
	assert.Equal(t, "a_bot", accounts[0].Username)
	assert.Equal(t, "new", accounts[1].Password)
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvUsername, "env_bot")
	t.Setenv(EnvPassword, "env_pass")

	mem := newMemBackend("memory")
	require.NoError(t, mem.Put(Account{Username: "stored_bot", Password: "stored_pass"}))
	manager := NewManagerWithBackends(mem, NewEnvBackend())

	tests := []struct {
		name     string
		username string
		password string
		wantUser string
		wantPass string
		wantErr  bool
	}{
		{"complete pair", "row_bot", "row_pass", "row_bot", "row_pass", false},
		{"password from store", "stored_bot", "", "stored_bot", "stored_pass", false},
		{"password from env", "env_bot", "", "env_bot", "env_pass", false},
		{"pair from env", "", "", "env_bot", "env_pass", false},
		{"unknown bot", "ghost", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, pass, err := manager.Resolve(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, user)
			assert.Equal(t, tt.wantPass, pass)
		})
	}
}

func TestResolveWithoutEnvironment(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, _, err := NewManagerWithBackends(newMemBackend("memory"), NewEnvBackend()).Resolve("", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = NewManagerWithBackends(newMemBackend("memory")).Resolve("", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvBackend(t *testing.T) {
	t.Setenv(EnvUsername, "env_bot")
	t.Setenv(EnvPassword, "env_pass")
	env := NewEnvBackend()

	a, err := env.Get("")
	require.NoError(t, err)
	assert.Equal(t, "env_bot", a.Username)
	assert.Equal(t, "env_pass", a.Password)

	_, err = env.Get("someone_else")
	assert.ErrorIs(t, err, ErrNotFound)

	accounts, err := env.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	assert.ErrorIs(t, env.Put(Account{Username: "x"}), ErrReadOnly)
	assert.ErrorIs(t, env.Remove("env_bot"), ErrReadOnly)
}

func TestKeyringBackend(t *testing.T) {
	keyring.MockInit()

	kr, err := OpenKeyring()
	require.NoError(t, err)
	require.NoError(t, kr.Put(Account{Username: "lincoln_bot", Password: "s3cret"}))

	a, err := kr.Get("lincoln_bot")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", a.Password)

	stored, err := keyring.Get("igfollow", "lincoln_bot")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", stored)

	require.NoError(t, kr.Remove("lincoln_bot"))
	_, err = kr.Get("lincoln_bot")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, kr.Remove("lincoln_bot"), ErrNotFound)
}

func TestKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	defer keyring.MockInit()

	_, err := OpenKeyring()
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewManager(ModeKeyring, t.TempDir())
	assert.ErrorIs(t, err, ErrUnavailable)

	t.Setenv(PassphraseEnv, "auto_mode_passphrase")
	manager, err := NewManager(ModeAuto, t.TempDir())
	require.NoError(t, err)
	where, err := manager.Save("auto_bot", "auto_pass")
	require.NoError(t, err)
	assert.Equal(t, "vault", where)
}

func TestNewManagerModes(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "file_mode_passphrase")

	manager, err := NewManager(ModeFile, dir)
	require.NoError(t, err)
	where, err := manager.Save("file_bot", "file_pass")
	require.NoError(t, err)
	assert.Equal(t, "vault", where)
	assert.FileExists(t, VaultPath(dir))

	manager, err = NewManager(ModeEnv, dir)
	require.NoError(t, err)
	_, err = manager.Lookup("file_bot")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewManager("vaultd", dir)
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "hu...et", Mask("hunter22secret"))
	assert.Equal(t, "********", Mask("short"))
}
