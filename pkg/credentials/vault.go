package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated vault key file
const PassphraseEnv = "IGFOLLOW_CREDENTIALS_PASSPHRASE"

const (
	vaultName     = "bots.vault"
	vaultKeyName  = "vault.key"
	vaultVersion  = 1
	saltLen       = 16
	kdfIterations = 210000
)

// ErrWrongPassphrase means the vault was sealed with another passphrase
var ErrWrongPassphrase = errors.New("vault passphrase does not match")

// vaultDoc is the on-disk layout. Bot usernames stay readable so the vault
// can be listed; each password is sealed on its own with the username as
// associated data, so a record cannot be moved to another bot.
type vaultDoc struct {
	Version int                  `json:"version"`
	Salt    []byte               `json:"salt"`
	Bots    map[string]vaultSeal `json:"bots"`
}

type vaultSeal struct {
	Nonce   []byte    `json:"nonce"`
	Secret  []byte    `json:"secret"`
	Updated time.Time `json:"updated"`
}

// Vault keeps bot passwords in an AES-GCM sealed file in the data
// directory. The key is derived with PBKDF2 from IGFOLLOW_CREDENTIALS_PASSPHRASE
// or, when unset, from a random key file generated next to the vault.
type Vault struct {
	path       string
	passphrase []byte

	mu      sync.Mutex
	keySalt string
	aead    cipher.AEAD
}

// VaultPath is the vault file inside dataDir
func VaultPath(dataDir string) string {
	return filepath.Join(dataDir, vaultName)
}

// OpenVault prepares the vault in dataDir. Nothing is written until the
// first Put, apart from a generated key file.
func OpenVault(dataDir string) (*Vault, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	passphrase, err := vaultPassphrase(dataDir)
	if err != nil {
		return nil, err
	}
	return &Vault{path: VaultPath(dataDir), passphrase: passphrase}, nil
}

func vaultPassphrase(dataDir string) ([]byte, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return []byte(p), nil
	}

	keyPath := filepath.Join(dataDir, vaultKeyName)
	if data, err := os.ReadFile(keyPath); err == nil && len(data) > 0 {
		return data, nil
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read vault key: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate vault key: %w", err)
	}
	key := []byte(base64.RawURLEncoding.EncodeToString(raw))
	if err := os.WriteFile(keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("write vault key: %w", err)
	}
	return key, nil
}

func (*Vault) Name() string { return "vault" }

func (v *Vault) Path() string { return v.path }

func (v *Vault) Get(username string) (*Account, error) {
	if username == "" {
		return nil, ErrNoUsername
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, err := v.load()
	if err != nil {
		return nil, err
	}
	seal, ok := doc.Bots[username]
	if !ok {
		return nil, ErrNotFound
	}
	return v.open(doc, username, seal)
}

func (v *Vault) Put(a Account) error {
	if a.Username == "" {
		return ErrNoUsername
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, err := v.load()
	if err != nil {
		return err
	}
	if len(doc.Salt) == 0 {
		doc.Salt = make([]byte, saltLen)
		if _, err := rand.Read(doc.Salt); err != nil {
			return fmt.Errorf("generate vault salt: %w", err)
		}
	}

	aead, err := v.cipher(doc.Salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	updated := a.Updated
	if updated.IsZero() {
		updated = time.Now()
	}
	doc.Bots[a.Username] = vaultSeal{
		Nonce:   nonce,
		Secret:  aead.Seal(nil, nonce, []byte(a.Password), []byte(a.Username)),
		Updated: updated.UTC(),
	}
	return v.save(doc)
}

// Remove drops the bot's record. The file is deleted with the last one.
func (v *Vault) Remove(username string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, err := v.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Bots[username]; !ok {
		return ErrNotFound
	}
	delete(doc.Bots, username)

	if len(doc.Bots) == 0 {
		return os.Remove(v.path)
	}
	return v.save(doc)
}

func (v *Vault) List() ([]Account, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, err := v.load()
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(doc.Bots))
	for username, seal := range doc.Bots {
		a, err := v.open(doc, username, seal)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (v *Vault) open(doc *vaultDoc, username string, seal vaultSeal) (*Account, error) {
	aead, err := v.cipher(doc.Salt)
	if err != nil {
		return nil, err
	}
	if len(seal.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("vault record for %s is corrupt", username)
	}
	plain, err := aead.Open(nil, seal.Nonce, seal.Secret, []byte(username))
	if err != nil {
		return nil, fmt.Errorf("%w (record %s)", ErrWrongPassphrase, username)
	}
	return &Account{Username: username, Password: string(plain), Updated: seal.Updated}, nil
}

// cipher derives the vault key once per salt
func (v *Vault) cipher(salt []byte) (cipher.AEAD, error) {
	if v.aead != nil && v.keySalt == string(salt) {
		return v.aead, nil
	}
	key := pbkdf2.Key(v.passphrase, salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	v.aead, v.keySalt = aead, string(salt)
	return aead, nil
}

func (v *Vault) load() (*vaultDoc, error) {
	data, err := os.ReadFile(v.path)
	if os.IsNotExist(err) {
		return &vaultDoc{Version: vaultVersion, Bots: make(map[string]vaultSeal)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read vault: %w", err)
	}

	var doc vaultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse vault %s: %w", v.path, err)
	}
	if doc.Version != vaultVersion {
		return nil, fmt.Errorf("vault %s has unsupported version %d", v.path, doc.Version)
	}
	if doc.Bots == nil {
		doc.Bots = make(map[string]vaultSeal)
	}
	return &doc, nil
}

// save replaces the vault through a temporary file in the same directory
func (v *Vault) save(doc *vaultDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(v.path), vaultName+".*")
	if err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	if err := os.Rename(tmp.Name(), v.path); err != nil {
		return fmt.Errorf("replace vault: %w", err)
	}
	return nil
}
