package readers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PlainFileReader reads plain-text formats directly, without going through
// a converter.
type PlainFileReader struct{}

func (r *PlainFileReader) CanRead(path string) bool {
	switch filepath.Ext(path) {
	case ".txt", ".md":
		return true
	}
	return false
}

func (r *PlainFileReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	return strings.TrimPrefix(string(buf), "\uFEFF"), nil
}
