package hashing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamKnownVectors(t *testing.T) {
	d, err := Stream(strings.NewReader("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", d.MD5)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", d.SHA256)
}

func TestStreamEmpty(t *testing.T) {
	d, err := Stream(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", d.MD5)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", d.SHA256)
}

func TestStreamDeterministic(t *testing.T) {
	a, err := Stream(strings.NewReader("repeatable content"))
	require.NoError(t, err)
	b, err := Stream(strings.NewReader("repeatable content"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFileMatchesStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	md5sum, sha256sum, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", md5sum)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", sha256sum)
}

func TestFileUnreadablePathReturnsError(t *testing.T) {
	_, _, err := File(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	assert.Error(t, err)
}
