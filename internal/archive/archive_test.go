package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKey(t *testing.T, dir string) (string, Key) {
	t.Helper()
	k, err := GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(dir, "secret.key")
	require.NoError(t, WriteKeyFile(path, k, false))
	return path, k
}

func TestKey_SealOpen(t *testing.T) {
	k, err := GenerateKey()
	require.NoError(t, err)

	sealed, err := k.Seal([]byte("claim sheet"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "claim sheet")

	plain, err := k.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "claim sheet", string(plain))

	sealed[len(sealed)-1] ^= 0xff
	_, err = k.Open(sealed)
	assert.ErrorIs(t, err, ErrCiphertext)

	_, err = k.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrCiphertext)
}

func TestParseKey(t *testing.T) {
	k, err := GenerateKey()
	require.NoError(t, err)

	got, err := ParseKey([]byte(k.Encode() + "\n"))
	require.NoError(t, err)
	assert.Equal(t, k, got)

	// A Fernet key file holds the same encoding of 32 bytes.
	_, err = ParseKey([]byte("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="))
	assert.NoError(t, err)

	tests := []string{"", "not base64!!", "c2hvcnQ="}
	for _, in := range tests {
		_, err := ParseKey([]byte(in))
		assert.ErrorIs(t, err, ErrKeyMaterial, "input %q", in)
	}
}

func TestKeyLoader(t *testing.T) {
	dir := t.TempDir()

	missing := NewKeyLoader(filepath.Join(dir, "absent.key"))
	_, err := missing.Load()
	assert.ErrorIs(t, err, ErrKeyMaterial)

	_, err = NewKeyLoader("").Load()
	assert.ErrorIs(t, err, ErrKeyMaterial)

	path, want := writeKey(t, dir)
	loader := NewKeyLoader(path)
	got, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Cached after the first read.
	require.NoError(t, os.Remove(path))
	got, err = loader.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteKeyFile_NoOverwrite(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeKey(t, dir)

	k, err := GenerateKey()
	require.NoError(t, err)
	assert.Error(t, WriteKeyFile(path, k, false))
	assert.NoError(t, WriteKeyFile(path, k, true))

	got, err := NewKeyLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	keyPath, _ := writeKey(t, dir)
	store := NewStore(filepath.Join(dir, "uploaded_files"), NewKeyLoader(keyPath))

	path, err := store.Save(context.Background(), `C:\Users\clerk\claims.xlsx`, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "uploaded_files", "claims.xlsx.enc"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "payload")

	plain, err := store.Load("claims.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(plain))
}

func TestStore_SaveWithoutKey(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, NewKeyLoader(filepath.Join(dir, "missing.key")))

	_, err := store.Save(context.Background(), "claims.xlsx", []byte("payload"))
	assert.ErrorIs(t, err, ErrKeyMaterial)

	_, err = os.Stat(filepath.Join(dir, "claims.xlsx.enc"))
	assert.True(t, os.IsNotExist(err))
}
