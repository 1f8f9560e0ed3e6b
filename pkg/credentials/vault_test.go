package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultPerBotRecords(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "test_passphrase_123")

	v, err := OpenVault(dir)
	require.NoError(t, err)
	require.NoError(t, v.Put(Account{Username: "lincoln_bot", Password: "plaintext_secret"}))
	require.NoError(t, v.Put(Account{Username: "roosevelt_bot", Password: "other_secret"}))

	a, err := v.Get("lincoln_bot")
	require.NoError(t, err)
	assert.Equal(t, "plaintext_secret", a.Password)
	assert.False(t, a.Updated.IsZero())

	data, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "plaintext_secret")
	assert.NotContains(t, string(data), "other_secret")

	var doc vaultDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Bots, 2)
	assert.Contains(t, doc.Bots, "lincoln_bot")

	accounts, err := v.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	info, err := os.Stat(v.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestVaultRecordsAreBoundToTheirBot(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "test_passphrase_123")

	v, err := OpenVault(dir)
	require.NoError(t, err)
	require.NoError(t, v.Put(Account{Username: "lincoln_bot", Password: "lincoln_pass"}))
	require.NoError(t, v.Put(Account{Username: "roosevelt_bot", Password: "roosevelt_pass"}))

	data, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	var doc vaultDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	doc.Bots["roosevelt_bot"] = doc.Bots["lincoln_bot"]
	data, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(v.Path(), data, 0600))

	_, err = v.Get("roosevelt_bot")
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	a, err := v.Get("lincoln_bot")
	require.NoError(t, err)
	assert.Equal(t, "lincoln_pass", a.Password)
}

func TestVaultWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "first")

	v, err := OpenVault(dir)
	require.NoError(t, err)
	require.NoError(t, v.Put(Account{Username: "a_bot", Password: "a_pass"}))

	t.Setenv(PassphraseEnv, "second")
	other, err := OpenVault(dir)
	require.NoError(t, err)
	_, err = other.Get("a_bot")
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	_, err = other.List()
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestVaultGeneratesKeyFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "")

	v, err := OpenVault(dir)
	require.NoError(t, err)
	require.NoError(t, v.Put(Account{Username: "a_bot", Password: "a_pass"}))

	info, err := os.Stat(filepath.Join(dir, vaultKeyName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := OpenVault(dir)
	require.NoError(t, err)
	a, err := reopened.Get("a_bot")
	require.NoError(t, err)
	assert.Equal(t, "a_pass", a.Password)
}

func TestVaultRemove(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "test_passphrase_123")

	v, err := OpenVault(dir)
	require.NoError(t, err)
	assert.ErrorIs(t, v.Remove("a_bot"), ErrNotFound)

	require.NoError(t, v.Put(Account{Username: "a_bot", Password: "a"}))
	require.NoError(t, v.Put(Account{Username: "b_bot", Password: "b"}))

	require.NoError(t, v.Remove("a_bot"))
	_, err = v.Get("a_bot")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.FileExists(t, v.Path())

	require.NoError(t, v.Remove("b_bot"))
	assert.NoFileExists(t, v.Path())

	accounts, err := v.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestVaultRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "test_passphrase_123")
	require.NoError(t, os.WriteFile(VaultPath(dir), []byte(`{"version":9,"bots":{}}`), 0600))

	v, err := OpenVault(dir)
	require.NoError(t, err)
	_, err = v.Get("a_bot")
	assert.ErrorContains(t, err, "unsupported version")
}
