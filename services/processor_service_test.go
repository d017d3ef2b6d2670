package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSupported(t *testing.T) {
	p := NewDocumentProcessor(1000, 200)

	tests := []struct {
		filename  string
		supported bool
	}{
		{"notes.txt", true},
		{"readme.md", true},
		{"report.PDF", true},
		{"letter.docx", true},
		{"legacy.doc", false},
		{"sheet.xlsx", false},
		{"binary.exe", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.supported, p.IsSupported(tt.filename), tt.filename)
	}
}

func TestProcess_StampsSourceMetadata(t *testing.T) {
	path := writeTestFile(t, "notes.txt", "Some text that will become a chunk.")
	p := NewDocumentProcessor(1000, 200)

	chunks, err := p.Process([]string{path})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.Equal(t, "notes.txt", chunk.Source())
		assert.Equal(t, path, chunk.Metadata["file_path"])
		assert.NotEmpty(t, strings.TrimSpace(chunk.Text))
	}
}

func TestProcess_SplitsLongDocuments(t *testing.T) {
	// Paragraph-separated text far above the chunk size forces a split.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("This paragraph repeats long enough filler text to overflow a single chunk window.\n\n")
	}
	path := writeTestFile(t, "long.md", sb.String())

	p := NewDocumentProcessor(200, 20)
	chunks, err := p.Process([]string{path})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
}

func TestProcess_UnsupportedTypeFails(t *testing.T) {
	p := NewDocumentProcessor(1000, 200)

	// Legacy .doc is the pre-2007 binary format; only OOXML .docx parses.
	for _, name := range []string{"data.csv", "legacy.doc"} {
		path := writeTestFile(t, name, "a,b,c")
		_, err := p.Process([]string{path})
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrUnsupportedInput, name)
	}
}

func TestProcess_CorruptDocxFails(t *testing.T) {
	// A .docx must be a zip container; plain bytes cannot open.
	path := writeTestFile(t, "broken.docx", "not a zip archive")
	p := NewDocumentProcessor(1000, 200)

	_, err := p.Process([]string{path})
	assert.Error(t, err)
}

func TestProcess_MissingFileFails(t *testing.T) {
	p := NewDocumentProcessor(1000, 200)
	_, err := p.Process([]string{filepath.Join(t.TempDir(), "nothere.txt")})
	assert.Error(t, err)
}
