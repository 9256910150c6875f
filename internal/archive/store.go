package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hitpa/claimupload/internal/logging"
)

// Extension is appended to the name of every archived file.
const Extension = ".enc"

// Store writes encrypted copies of uploaded files into a directory.
type Store struct {
	dir  string
	keys *KeyLoader
}

// NewStore creates a Store rooted at dir using keys for encryption.
func NewStore(dir string, keys *KeyLoader) *Store {
	return &Store{dir: dir, keys: keys}
}

// Dir returns the archive directory.
func (s *Store) Dir() string { return s.dir }

// Save encrypts data and writes it as <name>.enc, replacing any earlier
// archive of the same name. Only the base name of fileName is used.
func (s *Store) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	key, err := s.keys.Load()
	if err != nil {
		return "", err
	}

	sealed, err := key.Seal(data)
	if err != nil {
		return "", fmt.Errorf("encrypt %s: %w", fileName, err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	path := filepath.Join(s.dir, archiveName(fileName))
	if err := os.WriteFile(path, sealed, 0o640); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	logging.FromContext(ctx).Info("archived upload",
		"file", fileName,
		"path", path,
		"bytes", len(data),
	)
	return path, nil
}

// Load reads and decrypts the archive written for fileName.
func (s *Store) Load(fileName string) ([]byte, error) {
	key, err := s.keys.Load()
	if err != nil {
		return nil, err
	}
	sealed, err := os.ReadFile(filepath.Join(s.dir, archiveName(fileName)))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return key.Open(sealed)
}

func archiveName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return base + Extension
}
