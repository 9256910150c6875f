// Package archive encrypts uploaded originals and stores them on disk.
package archive

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the length of a decoded key in bytes.
const KeySize = 32

const nonceSize = 24

var (
	// ErrKeyMaterial is returned when the key file is missing or malformed.
	ErrKeyMaterial = errors.New("encryption key unavailable")

	// ErrCiphertext is returned when a sealed payload fails to open.
	ErrCiphertext = errors.New("ciphertext invalid")
)

// Key is a symmetric secretbox key.
type Key [KeySize]byte

// ParseKey decodes url-safe base64 key text. Surrounding whitespace is
// ignored, so key files written with a trailing newline load fine.
func ParseKey(text []byte) (Key, error) {
	var k Key
	raw, err := base64.URLEncoding.DecodeString(string(bytes.TrimSpace(text)))
	if err != nil {
		return k, fmt.Errorf("%w: decode: %v", ErrKeyMaterial, err)
	}
	if len(raw) != KeySize {
		return k, fmt.Errorf("%w: key is %d bytes, want %d", ErrKeyMaterial, len(raw), KeySize)
	}
	copy(k[:], raw)
	return k, nil
}

// GenerateKey returns a new random key.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return k, fmt.Errorf("generate key: %w", err)
	}
	return k, nil
}

// Encode returns the key as url-safe base64 text.
func (k Key) Encode() string {
	return base64.URLEncoding.EncodeToString(k[:])
}

// Seal encrypts plaintext. The random nonce is prepended to the output.
func (k Key) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	key := [KeySize]byte(k)
	return secretbox.Seal(nonce[:], plaintext, &nonce, &key), nil
}

// Open decrypts a payload produced by Seal.
func (k Key) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: too short", ErrCiphertext)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	key := [KeySize]byte(k)
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &key)
	if !ok {
		return nil, fmt.Errorf("%w: authentication failed", ErrCiphertext)
	}
	return out, nil
}

// KeyLoader reads the key from a file once and caches it.
type KeyLoader struct {
	path string

	mu  sync.Mutex
	key *Key
}

// NewKeyLoader creates a loader for the key file at path.
func NewKeyLoader(path string) *KeyLoader {
	return &KeyLoader{path: path}
}

// Path returns the configured key file path.
func (l *KeyLoader) Path() string { return l.path }

// Load returns the key, reading the file on first use. A failed read is
// not cached, so a key file created later is picked up.
func (l *KeyLoader) Load() (Key, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.key != nil {
		return *l.key, nil
	}
	if l.path == "" {
		return Key{}, fmt.Errorf("%w: no key file configured", ErrKeyMaterial)
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}
	k, err := ParseKey(data)
	if err != nil {
		return Key{}, err
	}
	l.key = &k
	return k, nil
}

// WriteKeyFile writes k to path with owner-only permissions. An existing
// file is left alone unless overwrite is set.
func WriteKeyFile(path string, k Key, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("open key file: %w", err)
	}
	if _, err := f.WriteString(k.Encode()); err != nil {
		f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	return f.Close()
}
