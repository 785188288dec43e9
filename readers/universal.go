// Package readers extracts plain text from document files.
package readers

import (
	"fmt"
	"path/filepath"

	"code.sajari.com/docconv/v2"
)

var universalExts = map[string]struct{}{
	".txt":  {},
	".docx": {},
	".odt":  {},
	".pdf":  {},
	".xml":  {},
	".html": {},
}

// UniversalFileReader extracts text from every format docconv supports.
type UniversalFileReader struct {
}

func (r *UniversalFileReader) CanRead(path string) bool {
	_, ok := universalExts[filepath.Ext(path)]
	return ok
}

func (r *UniversalFileReader) ReadText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	return res.Body, nil
}
