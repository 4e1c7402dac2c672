package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// scratchFile owns one path in the scratch area. Release removes it whether
// or not anything was ever written there.
type scratchFile struct {
	path string
}

// newScratchFile reserves a unique path in dir for a local copy of key
func newScratchFile(dir, key string) *scratchFile {
	name := uuid.NewString() + "-" + safeFilename(key)
	return &scratchFile{path: filepath.Join(dir, name)}
}

func (f *scratchFile) Path() string {
	return f.path
}

// Release deletes the file if it exists
func (f *scratchFile) Release() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

// safeFilename reduces an object key to a file name, shortening very long
// names with a hash of the full key.
func safeFilename(key string) string {
	baseName := filepath.Base(key)

	if len(baseName) > 200 {
		hash := sha256.Sum256([]byte(key))
		extension := filepath.Ext(baseName)

		shortName := baseName[:20]
		shortName = strings.Map(func(r rune) rune {
			if strings.ContainsRune(`<>:"/\|?*`, r) {
				return '_'
			}
			return r
		}, shortName)

		baseName = fmt.Sprintf("%s-%s%s", shortName, hex.EncodeToString(hash[:8]), extension)
	}

	return baseName
}
