package readers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_PlainFileReader_CanRead(t *testing.T) {
	r := PlainFileReader{}
	assert.True(t, r.CanRead("some/file.txt"))
	assert.True(t, r.CanRead("some/notes.md"))
	assert.False(t, r.CanRead("some/file.pdf"))
}

func Test_PlainFileReader_ReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFFhello world"), 0o644))

	r := PlainFileReader{}
	txt, err := r.ReadText(path)
	require.NoError(t, err)

	assert.Equal(t, "hello world", txt)
}
