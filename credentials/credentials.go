// Package credentials stores the corroboration provider API key in
// ~/.brandlens/credentials.yaml, encrypted at rest with AES-256-GCM.
//
// The encryption key lives in the system keyring (macOS Keychain, Windows
// Credential Manager, Linux Secret Service). For CI set
// BRANDLENS_ENCRYPTION_KEY to a 64-character hex string, or set
// BRANDLENS_PASSPHRASE to derive the key with Argon2id.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential storage constants.
const (
	DefaultCredentialsDir  = ".brandlens"
	DefaultCredentialsFile = "credentials.yaml"

	// APIKeyEnv overrides any stored key.
	APIKeyEnv = "BRANDLENS_CORROBORATION_API_KEY"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no credentials are stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrInvalidCredentials is returned when stored credentials are malformed.
	ErrInvalidCredentials = errors.New("invalid credentials format")
	// ErrEncryptionFailed is returned when encryption/decryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// Credentials holds the stored provider credentials.
type Credentials struct {
	// Provider names the corroboration backend, e.g. "openai".
	Provider string `yaml:"provider"`
	// APIKey is encrypted in the file and plaintext after Load.
	APIKey string `yaml:"api_key"`
	// BaseURL optionally points at an OpenAI-compatible endpoint.
	BaseURL     string    `yaml:"base_url,omitempty"`
	LastUpdated time.Time `yaml:"last_updated"`
}

// Store manages the credentials file.
type Store struct {
	dir           string
	encryptionKey []byte
	keyProvider   KeyProvider
}

// NewStore opens the default store using the default key provider.
func NewStore() (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}
	kp, err := DefaultKeyProvider(dir)
	if err != nil {
		return nil, fmt.Errorf("initializing key provider: %w", err)
	}
	return NewStoreWithKeyProvider(dir, kp)
}

// NewStoreWithKeyProvider opens a store in dir with a custom key provider.
func NewStoreWithKeyProvider(dir string, kp KeyProvider) (*Store, error) {
	key, err := kp.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrEncryptionFailed, keyLength)
	}
	return &Store{dir: dir, encryptionKey: key, keyProvider: kp}, nil
}

// KeyDescription describes where the encryption key is kept.
func (s *Store) KeyDescription() string {
	return s.keyProvider.Description()
}

// Path returns the credentials file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, DefaultCredentialsFile)
}

// CredentialsDir returns ~/.brandlens.
func CredentialsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultCredentialsDir), nil
}

// Save encrypts the API key and writes creds with 0600 permissions.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil || creds.APIKey == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidCredentials)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	encrypted, err := s.encrypt(creds.APIKey)
	if err != nil {
		return err
	}
	stored := *creds
	stored.APIKey = encrypted
	stored.LastUpdated = time.Now().UTC()
	if stored.Provider == "" {
		stored.Provider = "openai"
	}

	data, err := yaml.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	// Write to a temp file then rename so a crash never leaves a torn file.
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Load reads and decrypts the stored credentials.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if creds.APIKey == "" {
		return nil, ErrNoCredentials
	}
	if creds.APIKey, err = s.decrypt(creds.APIKey); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Delete removes the credentials file. Deleting a missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// Exists reports whether a credentials file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

func (s *Store) encrypt(plaintext string) (string, error) {
	gcm, err := newGCM(s.encryptionKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding: %v", ErrEncryptionFailed, err)
	}
	gcm, err := newGCM(s.encryptionKey)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}
	nonce, body := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return gcm, nil
}

// RotateKey replaces the encryption key and re-encrypts stored credentials.
func (s *Store) RotateKey() error {
	creds, err := s.Load()
	if err != nil && !errors.Is(err, ErrNoCredentials) {
		return err
	}
	key, err := s.keyProvider.ResetKey()
	if err != nil {
		return fmt.Errorf("resetting key: %w", err)
	}
	s.encryptionKey = key
	if creds == nil {
		return nil
	}
	return s.Save(creds)
}

// Key sources reported by ResolveAPIKey.
const (
	SourceEnv   = "env"
	SourceStore = "credentials file"
)

// ResolveAPIKey returns the API key from APIKeyEnv, falling back to the
// store opened by open. open is only called when the env var is unset.
func ResolveAPIKey(open func() (*Store, error)) (key, source string, err error) {
	if v := os.Getenv(APIKeyEnv); v != "" {
		return v, SourceEnv, nil
	}
	s, err := open()
	if err != nil {
		return "", "", err
	}
	creds, err := s.Load()
	if err != nil {
		return "", "", err
	}
	return creds.APIKey, SourceStore, nil
}

// MaskAPIKey shows only the first and last four characters of a key.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 12 {
		return "****"
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
}
