package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SafeBaseName strips any path components and control characters from an
// uploaded filename. Multipart clients control the filename field, so it is
// never trusted as a path. Returns a UUID-based name when nothing usable
// remains.
func SafeBaseName(name string) string {
	// Normalize both separator styles before taking the base.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, r == 0x7f:
			// skip control characters
		case r == '/', r == '\\', r == ':', r == '\x00':
			// skip separator-like characters
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return uuid.NewString()
	}
	return cleaned
}

// SafePath returns a non-existing path by appending _1.._9, then a UUID suffix.
// If the original path does not exist, it is returned unchanged.
func SafePath(path string) (string, bool, error) {
	if path == "" {
		return "", false, fmt.Errorf("path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(path)
		base := strings.TrimSuffix(path, ext)

		for i := 1; i <= 9; i++ {
			candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				return candidate, true, nil
			} else if err != nil {
				return "", false, err
			}
		}

		u, err := uuid.NewV7()
		uuidSuffix := ""
		if err != nil {
			uuidSuffix = uuid.NewString()[:8]
		} else {
			uuidSuffix = u.String()
		}
		return fmt.Sprintf("%s_%s%s", base, uuidSuffix, ext), true, nil
	} else if os.IsNotExist(err) {
		return path, false, nil
	} else {
		return "", false, err
	}
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("directory is empty")
	}
	return os.MkdirAll(dir, 0o755)
}
