package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes_PlainText(t *testing.T) {
	p := New(1000, 100)
	chunks, err := p.ParseBytes("notes.txt", []byte("Goa has beautiful beaches."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Goa has beautiful beaches.", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 1, chunks[0].Seq)
}

func TestParseBytes_EmptyText(t *testing.T) {
	p := New(1000, 100)
	chunks, err := p.ParseBytes("empty.txt", []byte("   \n\t"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseBytes_HTML(t *testing.T) {
	p := New(1000, 100)
	doc := `<html><head><title>x</title><style>body{}</style></head>
<body><script>var a=1;</script><p>Visit the  Taj Mahal</p><p>in Agra</p></body></html>`
	chunks, err := p.ParseBytes("page.html", []byte(doc))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Visit the Taj Mahal")
	assert.Contains(t, chunks[0].Content, "in Agra")
	assert.NotContains(t, chunks[0].Content, "var a=1")
	assert.NotContains(t, chunks[0].Content, "body{}")
}

func TestParseBytes_Markdown(t *testing.T) {
	p := New(1000, 100)
	chunks, err := p.ParseBytes("guide.md", []byte("# Jaipur\n\nThe *pink* city."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Jaipur")
	assert.Contains(t, chunks[0].Content, "The pink city.")
	assert.NotContains(t, chunks[0].Content, "#")
	assert.NotContains(t, chunks[0].Content, "*")
}

func TestParseBytes_PPTX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("ppt/slides/slide1.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<p:sld><a:t>Kerala backwaters</a:t><a:t>houseboat tour</a:t></p:sld>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := New(1000, 100)
	chunks, err := p.ParseBytes("deck.pptx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Kerala backwaters")
	assert.Contains(t, chunks[0].Content, "houseboat tour")
}

func TestParseBytes_UnsupportedFormat(t *testing.T) {
	p := New(1000, 100)
	_, err := p.ParseBytes("photo.jpeg", []byte{0xff, 0xd8})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestChunkContent_Short(t *testing.T) {
	chunks := chunkContent("short text", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestChunkContent_Empty(t *testing.T) {
	assert.Nil(t, chunkContent("", 100, 10))
	assert.Nil(t, chunkContent("anything", 0, 10))
}

func TestChunkContent_Overlap(t *testing.T) {
	content := strings.Repeat("word ", 200) // 1000 bytes
	chunks := chunkContent(content, 300, 100)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 300)
	}
	// Consecutive chunks share the overlap window.
	assert.Contains(t, content, chunks[1][:50])
}

func TestChunkContent_ExcessiveOverlapClamped(t *testing.T) {
	content := strings.Repeat("x", 500)
	chunks := chunkContent(content, 100, 100)
	// Overlap >= max falls back to half the window, so this terminates.
	require.NotEmpty(t, chunks)
}

func TestHTMLToText_CollapsesWhitespace(t *testing.T) {
	text, err := htmlToText(strings.NewReader("<p>a</p>\n\n\t<p>b</p>"))
	require.NoError(t, err)
	assert.Equal(t, "a b", text)
}
