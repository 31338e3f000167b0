package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Chunk is a parsed span of text with its position inside the source.
type Chunk struct {
	Content string
	Page    int
	Seq     int
}

// Parser converts raw document bytes and fetched web pages into overlap
// chunks of normalized text.
type Parser struct {
	chunkSize    int
	chunkOverlap int
}

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 500  // bytes
	defaultPage         = 1
)

// New returns a parser with the given chunking window; zero values fall
// back to the defaults.
func New(chunkSize, chunkOverlap int) *Parser {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
	}
	return &Parser{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ParseBytes parses one document by its declared name's extension.
func (p *Parser) ParseBytes(name string, data []byte) ([]Chunk, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return p.parsePDF(data)
	case ".docx":
		return p.parseDOCX(data)
	case ".pptx":
		return p.parsePPTX(data)
	case ".xlsx":
		return p.parseXLSX(data)
	case ".xls", ".ods":
		return p.parseSpreadsheet(data)
	case ".html":
		text, err := htmlToText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return p.getChunks(text, defaultPage), nil
	case ".md":
		text, err := markdownToText(data)
		if err != nil {
			return nil, err
		}
		return p.getChunks(text, defaultPage), nil
	case ".txt", ".csv", ".tsv", ".rst", ".org", ".xml", ".eml":
		return p.getChunks(string(data), defaultPage), nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func (p *Parser) parsePDF(data []byte) ([]Chunk, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, p.getChunks(pageText, i)...)
	}
	return chunks, nil
}

func (p *Parser) parseDOCX(data []byte) ([]Chunk, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var parts []string
	for _, para := range strings.Split(content, "\n") {
		if strings.TrimSpace(para) != "" {
			parts = append(parts, para)
		}
	}
	return p.getChunks(strings.Join(parts, "\n"), defaultPage), nil
}

func (p *Parser) parsePPTX(data []byte) ([]Chunk, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	slide := 0
	for _, file := range zr.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slide++
		slideText := extractDrawingText(string(raw))
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		chunks = append(chunks, p.getChunks(slideText, slide)...)
	}
	return chunks, nil
}

func (p *Parser) parseXLSX(data []byte) ([]Chunk, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		chunks = append(chunks, p.getChunks(text.String(), sheetNum+1)...)
	}
	return chunks, nil
}

func (p *Parser) parseSpreadsheet(data []byte) ([]Chunk, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []Chunk
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		chunks = append(chunks, p.getChunks(text.String(), sheetNum+1)...)
	}
	return chunks, nil
}

// extractDrawingText pulls the <a:t> runs out of office drawing XML.
func extractDrawingText(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// chunkContent splits content into chunks of at most maxChars bytes with
// overlapChars of carry-over between consecutive chunks.
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// Prefer a break on whitespace or sentence end within the last
		// tenth of the window.
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(content[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start += maxChars - overlapChars
		if start >= contentLen {
			break
		}
	}
	return chunks
}

// getChunks turns one page/sheet/slide of content into sequenced chunks.
func (p *Parser) getChunks(content string, page int) []Chunk {
	var chunks []Chunk
	for i, s := range chunkContent(content, p.chunkSize, p.chunkOverlap) {
		chunks = append(chunks, Chunk{
			Content: s,
			Page:    page,
			Seq:     i + 1,
		})
	}
	return chunks
}
