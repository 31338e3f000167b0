package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-rag/internal/models"
	"travel-rag/internal/parser"
)

// fakeParser implements DocumentParser for tests.
type fakeParser struct {
	parsedFiles []string
	fetchedURLs []string
	failFile    string
	failURL     string
}

func (f *fakeParser) ParseBytes(name string, data []byte) ([]parser.Chunk, error) {
	f.parsedFiles = append(f.parsedFiles, name)
	if name == f.failFile {
		return nil, errors.New("corrupt file")
	}
	return []parser.Chunk{{Content: "content of " + name, Page: 1, Seq: 1}}, nil
}

func (f *fakeParser) ParseURL(ctx context.Context, url string) ([]parser.Chunk, error) {
	f.fetchedURLs = append(f.fetchedURLs, url)
	if url == f.failURL {
		return nil, errors.New("connection refused")
	}
	return []parser.Chunk{{Content: "page " + url, Page: 1, Seq: 1}}, nil
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("report.pdf"))
	assert.True(t, Allowed("REPORT.PDF"))
	assert.True(t, Allowed("sheet.xlsx"))
	assert.False(t, Allowed("binary.exe"))
	assert.False(t, Allowed("archive.zip"))
	assert.False(t, Allowed("noextension"))
}

func TestFromFiles_SkipsNonAllowListed(t *testing.T) {
	fp := &fakeParser{}
	ci := NewContentIngestor(fp)

	files := []models.FileInput{
		{Name: "good.txt", Data: []byte("a")},
		{Name: "bad.exe", Data: []byte("b")},
		{Name: "also-good.pdf", Data: []byte("c")},
	}
	chunks, failures := ci.FromFiles(context.Background(), "u1", files)

	// Rejected files appear in neither succeeded chunks nor failures.
	assert.Len(t, chunks, 2)
	assert.Empty(t, failures)
	assert.Equal(t, []string{"good.txt", "also-good.pdf"}, fp.parsedFiles)
}

func TestFromFiles_ParseFailureIsolated(t *testing.T) {
	fp := &fakeParser{failFile: "broken.pdf"}
	ci := NewContentIngestor(fp)

	files := []models.FileInput{
		{Name: "broken.pdf", Data: []byte("x")},
		{Name: "fine.txt", Data: []byte("y")},
	}
	chunks, failures := ci.FromFiles(context.Background(), "u1", files)

	assert.Len(t, chunks, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "broken.pdf", failures[0].Item)
	assert.Equal(t, models.FailureParse, failures[0].Kind)
}

func TestFromFiles_StampsOwner(t *testing.T) {
	ci := NewContentIngestor(&fakeParser{})
	chunks, _ := ci.FromFiles(context.Background(), "alice@example.com", []models.FileInput{
		{Name: "a.txt", Data: []byte("hello")},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, "alice@example.com", chunks[0].Metadata[models.MetaUserID])
	assert.Equal(t, models.OriginFile, chunks[0].Metadata[models.MetaOrigin])
	assert.Equal(t, "a.txt", chunks[0].Metadata[models.MetaSource])
}

func TestFromFiles_CapsOwnerIdentity(t *testing.T) {
	ci := NewContentIngestor(&fakeParser{})
	long := strings.Repeat("o", models.MaxOwnerLen+50)
	chunks, _ := ci.FromFiles(context.Background(), long, []models.FileInput{
		{Name: "a.txt", Data: []byte("hello")},
	})
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Metadata[models.MetaUserID], models.MaxOwnerLen)
}

func TestFromURLs_OneUnreachableDoesNotAbortRest(t *testing.T) {
	fp := &fakeParser{failURL: "https://down.example.com"}
	ci := NewContentIngestor(fp)

	urls := []string{
		"https://a.example.com",
		"https://down.example.com",
		"https://b.example.com",
	}
	chunks, failures := ci.FromURLs(context.Background(), "u1", urls)

	assert.Len(t, chunks, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, "https://down.example.com", failures[0].Item)
	assert.Equal(t, models.FailureParse, failures[0].Kind)
	// All three were attempted.
	assert.Len(t, fp.fetchedURLs, 3)
}

func TestFromURLs_StampsWebOrigin(t *testing.T) {
	ci := NewContentIngestor(&fakeParser{})
	chunks, _ := ci.FromURLs(context.Background(), "u1", []string{"https://x.example.com"})
	require.Len(t, chunks, 1)
	assert.Equal(t, models.OriginWeb, chunks[0].Metadata[models.MetaOrigin])
	assert.Equal(t, "https://x.example.com", chunks[0].Metadata[models.MetaSource])
}
