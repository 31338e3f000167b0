// Package ingest turns uploaded files and web pages into owner-scoped,
// searchable chunks.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"travel-rag/internal/models"
	"travel-rag/internal/parser"
)

// DocumentParser is the parsing collaborator behind the ingestor.
type DocumentParser interface {
	ParseBytes(name string, data []byte) ([]parser.Chunk, error)
	ParseURL(ctx context.Context, url string) ([]parser.Chunk, error)
}

// allowedExtensions is the fixed upload allow-list. Anything else is
// dropped before parsing, silently, so one stray file cannot fail an
// otherwise valid batch.
var allowedExtensions = map[string]bool{
	".bmp": true, ".csv": true, ".doc": true, ".docx": true, ".eml": true,
	".epub": true, ".heic": true, ".html": true, ".jpeg": true, ".png": true,
	".md": true, ".msg": true, ".odt": true, ".org": true, ".p7s": true,
	".pdf": true, ".ppt": true, ".pptx": true, ".rst": true, ".rtf": true,
	".tiff": true, ".txt": true, ".tsv": true, ".xls": true, ".xlsx": true,
	".xml": true,
	".vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	".vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	".vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// Allowed reports whether the declared file name passes the allow-list.
func Allowed(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// ContentIngestor normalizes files and web pages into ContentChunks. It
// stamps the owner identity itself; callers never do.
type ContentIngestor struct {
	parser DocumentParser
}

// NewContentIngestor wires the parsing collaborator.
func NewContentIngestor(p DocumentParser) *ContentIngestor {
	return &ContentIngestor{parser: p}
}

// FromFiles parses each allow-listed file. Files outside the allow-list
// are skipped without a failure entry; a parse error is isolated to its
// file.
func (ci *ContentIngestor) FromFiles(ctx context.Context, owner string, files []models.FileInput) ([]models.ContentChunk, []models.Failure) {
	var (
		chunks   []models.ContentChunk
		failures []models.Failure
	)
	for _, file := range files {
		if !Allowed(file.Name) {
			log.Debug().Str("file", file.Name).Msg("Skipping file outside allow-list")
			continue
		}
		parsed, err := ci.parser.ParseBytes(file.Name, file.Data)
		if err != nil {
			log.Warn().Err(err).Str("file", file.Name).Msg("Failed to parse file")
			failures = append(failures, models.Failure{
				Item: file.Name,
				Kind: models.FailureParse,
				Err:  err.Error(),
			})
			continue
		}
		chunks = append(chunks, stamp(owner, models.OriginFile, file.Name, len(file.Data), parsed)...)
	}
	return chunks, failures
}

// FromURLs fetches and parses each URL independently; one unreachable URL
// never aborts the rest of the batch.
func (ci *ContentIngestor) FromURLs(ctx context.Context, owner string, urls []string) ([]models.ContentChunk, []models.Failure) {
	var (
		chunks   []models.ContentChunk
		failures []models.Failure
	)
	for _, url := range urls {
		parsed, err := ci.parser.ParseURL(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Failed to ingest web page")
			failures = append(failures, models.Failure{
				Item: url,
				Kind: models.FailureParse,
				Err:  err.Error(),
			})
			continue
		}
		sourceLen := 0
		for _, c := range parsed {
			sourceLen += len(c.Content)
		}
		chunks = append(chunks, stamp(owner, models.OriginWeb, url, sourceLen, parsed)...)
	}
	return chunks, failures
}

// stamp converts parser chunks into ContentChunks carrying the capped
// owner identity and origin metadata.
func stamp(owner, origin, source string, sourceLen int, parsed []parser.Chunk) []models.ContentChunk {
	if len(owner) > models.MaxOwnerLen {
		owner = owner[:models.MaxOwnerLen]
	}
	out := make([]models.ContentChunk, 0, len(parsed))
	for _, c := range parsed {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		out = append(out, models.ContentChunk{
			Text: c.Content,
			Metadata: map[string]string{
				models.MetaUserID: owner,
				models.MetaOrigin: origin,
				models.MetaSource: source,
				models.MetaChunk:  fmt.Sprintf("%d-%d", c.Page, c.Seq),
			},
			SourceLength: sourceLen,
		})
	}
	return out
}
