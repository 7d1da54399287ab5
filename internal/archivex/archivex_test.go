package archivex

import (
	"archive/tar"
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func writeTar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Size: int64(len(content)),
			Mode: 0o644,
		}))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func TestExpandZipPassThrough(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evidence.zip")
	writeZip(t, zipPath, map[string]string{"report.txt": "hello"})

	entries, errs := Expand(zipPath, 5)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, "evidence.zip", entries[0].Trail)
	content, err := os.ReadFile(entries[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestExpandNonContainerPassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	entries, errs := Expand(path, 5)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Trail)
	assert.Equal(t, path, entries[0].Path)
}

func TestExpandTarPathTraversalRefused(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "evil.tar")
	writeTar(t, tarPath, map[string]string{
		"../../etc/passwd": "root:x:0:0",
		"safe.txt":         "ok",
	})

	entries, errs := Expand(tarPath, 5)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Err.Error(), "escapes destination")
	assert.Empty(t, entries)
}

func TestExpandNestedArchiveRecurses(t *testing.T) {
	dir := t.TempDir()
	innerZip := filepath.Join(dir, "inner.zip")
	writeZip(t, innerZip, map[string]string{"leaf.txt": "deep"})

	innerBytes, err := os.ReadFile(innerZip)
	require.NoError(t, err)

	outerZipPath := filepath.Join(dir, "outer.zip")
	f, err := os.Create(outerZipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("inner.zip")
	require.NoError(t, err)
	_, err = w.Write(innerBytes)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	entries, errs := Expand(outerZipPath, 5)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, "outer.zip/inner.zip", entries[0].Trail)
}

func TestExpandDepthBoundStopsRecursion(t *testing.T) {
	dir := t.TempDir()
	innerZip := filepath.Join(dir, "inner.zip")
	writeZip(t, innerZip, map[string]string{"leaf.txt": "deep"})
	innerBytes, err := os.ReadFile(innerZip)
	require.NoError(t, err)

	outerZipPath := filepath.Join(dir, "outer.zip")
	f, err := os.Create(outerZipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("inner.zip")
	require.NoError(t, err)
	_, err = w.Write(innerBytes)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	entries, errs := Expand(outerZipPath, 0)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Trail)
	assert.Equal(t, outerZipPath, entries[0].Path)
}

func TestExpandRarDegradesGracefully(t *testing.T) {
	dir := t.TempDir()
	rarPath := filepath.Join(dir, "legacy.rar")
	require.NoError(t, os.WriteFile(rarPath, []byte("not a real rar"), 0o644))

	entries, errs := Expand(rarPath, 5)
	assert.Empty(t, entries)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Err.Error(), "no decoder available")
}

func TestIsContainer(t *testing.T) {
	assert.True(t, IsContainer("archive.zip"))
	assert.True(t, IsContainer("archive.tar.gz"))
	assert.True(t, IsContainer("archive.tgz"))
	assert.True(t, IsContainer("archive.tar.bz2"))
	assert.True(t, IsContainer("archive.rar"))
	assert.True(t, IsContainer("archive.7z"))
	assert.False(t, IsContainer("report.pdf"))
}
