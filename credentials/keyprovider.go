package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
)

// Key sources consulted by DefaultKeyProvider, in order.
const (
	EncryptionKeyEnv = "BRANDLENS_ENCRYPTION_KEY"
	PassphraseEnv    = "BRANDLENS_PASSPHRASE"
)

const (
	keyLength  = 32 // AES-256
	saltLength = 16
	saltFile   = "credentials.salt"

	keyringService = "brandlens"
	keyringAccount = "credentials-key"
)

// ErrKeyringUnavailable is returned when neither environment variable is set
// and the system keyring cannot be reached.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyProvider supplies the AES key that seals the stored API key.
type KeyProvider interface {
	GetKey() ([]byte, error)
	// ResetKey replaces the key, or fails when the source is fixed.
	ResetKey() ([]byte, error)
	// Description names the source for `brandlens auth status`.
	Description() string
}

// DefaultKeyProvider picks the key source for a credentials directory:
// a hex key in BRANDLENS_ENCRYPTION_KEY, then an Argon2id key derived from
// BRANDLENS_PASSPHRASE with a salt kept in dir, then the system keyring.
func DefaultKeyProvider(dir string) (KeyProvider, error) {
	if os.Getenv(EncryptionKeyEnv) != "" {
		return envKey{name: EncryptionKeyEnv}, nil
	}
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		salt, err := readOrWriteSalt(filepath.Join(dir, saltFile))
		if err != nil {
			return nil, err
		}
		return &passphraseKey{passphrase: pass, salt: salt}, nil
	}

	kr := &keyringKey{}
	if _, err := kr.GetKey(); err != nil {
		if errors.Is(err, ErrKeyringUnavailable) {
			return nil, fmt.Errorf("set %s or %s: %w", EncryptionKeyEnv, PassphraseEnv, err)
		}
		return nil, err
	}
	return kr, nil
}

// envKey reads a hex key from an environment variable on every call.
type envKey struct {
	name string
}

func (k envKey) GetKey() ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(k.name))
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", k.name)
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k.name, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("%s holds %d bytes, want %d", k.name, len(key), keyLength)
	}
	return key, nil
}

func (k envKey) ResetKey() ([]byte, error) {
	return nil, fmt.Errorf("key comes from %s and cannot be reset here", k.name)
}

func (k envKey) Description() string { return "environment variable " + k.name }

// passphraseKey derives the key with Argon2id. Its salt lives next to the
// credentials file so the same passphrase reopens the store.
type passphraseKey struct {
	passphrase string
	salt       []byte
}

func (k *passphraseKey) GetKey() ([]byte, error) {
	switch {
	case k.passphrase == "":
		return nil, fmt.Errorf("%s is empty", PassphraseEnv)
	case len(k.salt) == 0:
		return nil, errors.New("passphrase salt is missing")
	}
	return argon2.IDKey([]byte(k.passphrase), k.salt, 1, 64*1024, 4, keyLength), nil
}

// ResetKey yields the same key; change the passphrase to rotate it.
func (k *passphraseKey) ResetKey() ([]byte, error) { return k.GetKey() }

func (k *passphraseKey) Description() string { return "passphrase (Argon2id)" }

// keyringKey keeps a random hex key in the OS keyring, creating it on first use.
type keyringKey struct {
	mu sync.Mutex
}

func (k *keyringKey) GetKey() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	stored, err := keyring.Get(keyringService, keyringAccount)
	switch {
	case err == nil:
		if key, decErr := hex.DecodeString(stored); decErr == nil && len(key) == keyLength {
			return key, nil
		}
	case !errors.Is(err, keyring.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return k.store()
}

func (k *keyringKey) ResetKey() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.store()
}

// store writes a fresh key. Callers hold k.mu.
func (k *keyringKey) store() ([]byte, error) {
	key, err := randomBytes(keyLength)
	if err != nil {
		return nil, err
	}
	if err := keyring.Set(keyringService, keyringAccount, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

func (k *keyringKey) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	}
	return "Secret Service keyring"
}

func readOrWriteSalt(path string) ([]byte, error) {
	if raw, err := os.ReadFile(path); err == nil {
		if salt, err := hex.DecodeString(strings.TrimSpace(string(raw))); err == nil && len(salt) > 0 {
			return salt, nil
		}
	}
	salt, err := randomBytes(saltLength)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(salt)), 0o600); err != nil {
		return nil, fmt.Errorf("writing salt: %w", err)
	}
	return salt, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return b, nil
}
