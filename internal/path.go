package internal

import (
	"path/filepath"
	"strings"
)

// SecurePath validates a file path and returns a cleaned absolute path.
// The sentinel errors are supplied by the caller to avoid an import cycle
// with the root package.
func SecurePath(path string, maxLen int, errEmpty, errNull, errTooLong, errTraversal, errInvalid error) (string, error) {
	if path == "" {
		return "", errEmpty
	}
	if strings.Contains(path, "\x00") {
		return "", errNull
	}
	if len(path) > maxLen {
		return "", errTooLong
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errInvalid
	}

	// Clean resolves interior ".." segments; any that survive indicate an
	// attempt to escape above the filesystem root.
	for _, part := range strings.Split(abs, string(filepath.Separator)) {
		if part == ".." {
			return "", errTraversal
		}
	}

	return abs, nil
}
