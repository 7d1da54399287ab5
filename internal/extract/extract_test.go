package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archon/internal/catalog"
)

func TestDetectFileType(t *testing.T) {
	cases := map[string]catalog.FileType{
		"report.pdf":   catalog.FileTypePDF,
		"photo.JPG":    catalog.FileTypeImage,
		"clip.mp4":     catalog.FileTypeVideo,
		"message.eml":  catalog.FileTypeEmail,
		"archive.mbox": catalog.FileTypeEmail,
		"notes.txt":    catalog.FileTypeText,
		"page.html":    catalog.FileTypeText,
		"binary.exe":   catalog.FileTypeUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, DetectFileType(name), name)
	}
}

func TestIsForensicImage(t *testing.T) {
	assert.True(t, IsForensicImage("disk.E01"))
	assert.True(t, IsForensicImage("disk.dd"))
	assert.False(t, IsForensicImage("disk.iso"))
}

func TestDecodeBestEffortValidUTF8(t *testing.T) {
	assert.Equal(t, "héllo wörld", decodeBestEffort([]byte("héllo wörld")))
}

func TestDecodeBestEffortLatin1Fallback(t *testing.T) {
	// 0xE9 in Latin-1/CP1252 is 'é'; it is not valid standalone UTF-8.
	raw := []byte{0xE9, 'c', 'r', 'i', 't'}
	got := decodeBestEffort(raw)
	assert.Equal(t, "écrit", got)
}

func TestExtractTextPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text content"), 0o644))

	res, err := extractText(path)
	require.NoError(t, err)
	assert.Equal(t, "plain text content", res.Text)
}

func TestExtractTextHTMLConvertsToMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>Title</h1><p>Body</p>"), 0o644))

	res, err := extractText(path)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Title")
	assert.Contains(t, res.Text, "Body")
}

func TestPreferIntrinsicDatePrefersNonZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	intrinsic := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, intrinsic, PreferIntrinsicDate(intrinsic, path))
}

func TestPreferIntrinsicDateFallsBackToMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got := PreferIntrinsicDate(time.Time{}, path)
	assert.False(t, got.IsZero())
}

func TestParsePDFDate(t *testing.T) {
	got, ok := parsePDFDate("D:20230615142233")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 15, 14, 22, 33, 0, time.UTC), got)

	_, ok = parsePDFDate("not a date")
	assert.False(t, ok)
}

func TestSplitMbox(t *testing.T) {
	raw := "From a@b Mon Jan  1 00:00:00 2024\nSubject: one\n\nbody one\nFrom c@d Tue Jan  2 00:00:00 2024\nSubject: two\n\nbody two\n"
	msgs := SplitMbox([]byte(raw))
	require.Len(t, msgs, 2)
	assert.True(t, strings.Contains(string(msgs[0]), "Subject: one"))
	assert.True(t, strings.Contains(string(msgs[1]), "Subject: two"))
}

func TestExtractEMLHeadersAndBody(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Evidence summary\r\n" +
		"Date: Mon, 02 Jan 2024 15:04:05 +0000\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"The package arrived.\r\n"

	res, err := extractEML(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Subject: Evidence summary")
	assert.Contains(t, res.Text, "The package arrived.")
	assert.Equal(t, 2024, res.FileModifiedAt.Year())
}

func TestFirstN(t *testing.T) {
	assert.Equal(t, "hello", firstN("hello world", 5))
	assert.Equal(t, "hi", firstN("hi", 5))
}
