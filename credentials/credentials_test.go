package credentials

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticKeyProvider hands out a fixed key and a fresh one on reset.
type staticKeyProvider struct {
	key []byte
}

func newStaticKeyProvider(t *testing.T) *staticKeyProvider {
	t.Helper()
	key := make([]byte, keyLength)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return &staticKeyProvider{key: key}
}

func (p *staticKeyProvider) GetKey() ([]byte, error) { return p.key, nil }

func (p *staticKeyProvider) ResetKey() ([]byte, error) {
	p.key = bytes.Repeat([]byte{0x42}, keyLength)
	return p.key, nil
}

func (p *staticKeyProvider) Description() string { return "static" }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreWithKeyProvider(t.TempDir(), newStaticKeyProvider(t))
	require.NoError(t, err)
	return s
}

func TestStoreSaveLoad(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Exists())

	require.NoError(t, s.Save(&Credentials{APIKey: "sk-test-1234567890", BaseURL: "http://localhost:8000"}))
	assert.True(t, s.Exists())

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-test-1234567890")

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	creds, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234567890", creds.APIKey)
	assert.Equal(t, "openai", creds.Provider)
	assert.Equal(t, "http://localhost:8000", creds.BaseURL)
	assert.False(t, creds.LastUpdated.IsZero())
}

func TestStoreLoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.NoError(t, s.Delete())
}

func TestStoreSaveRequiresKey(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Save(&Credentials{}), ErrInvalidCredentials)
	assert.ErrorIs(t, s.Save(nil), ErrInvalidCredentials)
}

func TestStoreWrongKey(t *testing.T) {
	dir := t.TempDir()
	a, err := NewStoreWithKeyProvider(dir, newStaticKeyProvider(t))
	require.NoError(t, err)
	require.NoError(t, a.Save(&Credentials{APIKey: "sk-secret"}))

	b, err := NewStoreWithKeyProvider(dir, newStaticKeyProvider(t))
	require.NoError(t, err)
	_, err = b.Load()
	assert.ErrorIs(t, err, ErrEncryptionFailed)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(&Credentials{APIKey: "sk-secret"}))
	require.NoError(t, s.Delete())
	assert.False(t, s.Exists())
}

func TestStoreRotateKey(t *testing.T) {
	kp := newStaticKeyProvider(t)
	s, err := NewStoreWithKeyProvider(t.TempDir(), kp)
	require.NoError(t, err)
	require.NoError(t, s.Save(&Credentials{APIKey: "sk-rotate-me"}))

	require.NoError(t, s.RotateKey())
	assert.Equal(t, bytes.Repeat([]byte{0x42}, keyLength), s.encryptionKey)

	creds, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-rotate-me", creds.APIKey)
}

func TestResolveAPIKey(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(&Credentials{APIKey: "sk-stored"}))
	open := func() (*Store, error) { return s, nil }
	t.Setenv(APIKeyEnv, "")

	key, source, err := ResolveAPIKey(open)
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", key)
	assert.Equal(t, SourceStore, source)

	t.Setenv(APIKeyEnv, "sk-env")
	key, source, err = ResolveAPIKey(func() (*Store, error) {
		t.Fatal("store should not be opened when the env var is set")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)
	assert.Equal(t, SourceEnv, source)
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "****"},
		{"sk-abcdefghijklmnop", "sk-a...mnop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskAPIKey(tt.in))
	}
}

func TestEnvKeyProvider(t *testing.T) {
	key := strings.Repeat("ab", keyLength)
	t.Setenv(EncryptionKeyEnv, key)

	kp, err := DefaultKeyProvider(t.TempDir())
	require.NoError(t, err)
	got, err := kp.GetKey()
	require.NoError(t, err)
	assert.Equal(t, key, hex.EncodeToString(got))
	_, err = kp.ResetKey()
	assert.Error(t, err)

	t.Setenv(EncryptionKeyEnv, "abcd")
	_, err = kp.GetKey()
	assert.Error(t, err)
}

func TestPassphraseKeyProviderPersistsSalt(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EncryptionKeyEnv, "")
	t.Setenv(PassphraseEnv, "correct horse battery staple")

	first, err := DefaultKeyProvider(dir)
	require.NoError(t, err)
	k1, err := first.GetKey()
	require.NoError(t, err)
	assert.Len(t, k1, keyLength)

	_, err = os.Stat(filepath.Join(dir, saltFile))
	require.NoError(t, err)

	second, err := DefaultKeyProvider(dir)
	require.NoError(t, err)
	k2, err := second.GetKey()
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Contains(t, second.Description(), "Argon2id")
}

func TestPassphraseKeyProviderValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     *passphraseKey
		wantErr bool
	}{
		{"empty passphrase", &passphraseKey{salt: []byte("salt")}, true},
		{"missing salt", &passphraseKey{passphrase: "pass"}, true},
		{"derives", &passphraseKey{passphrase: "pass", salt: []byte("0123456789abcdef")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := tt.key.GetKey()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, keyLength)
			again, err := tt.key.ResetKey()
			require.NoError(t, err)
			assert.Equal(t, key, again)
		})
	}
}

func TestReadOrWriteSaltReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", saltFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("not hex"), 0o600))

	salt, err := readOrWriteSalt(path)
	require.NoError(t, err)
	assert.Len(t, salt, saltLength)

	again, err := readOrWriteSalt(path)
	require.NoError(t, err)
	assert.Equal(t, salt, again)
}
