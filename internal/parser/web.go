package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

const (
	fetchTimeout = 30 * time.Second
	maxPageBytes = 10 << 20
)

// ParseURL fetches one web page and chunks its visible text. Each URL is
// fetched independently; the caller decides how to treat a failure.
func (p *Parser) ParseURL(ctx context.Context, url string) ([]Chunk, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxPageBytes)
	contentType := resp.Header.Get("Content-Type")

	var text string
	switch {
	case strings.Contains(contentType, "text/html"), contentType == "":
		text, err = htmlToText(body)
		if err != nil {
			return nil, err
		}
	default:
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		text = string(raw)
	}

	return p.getChunks(text, defaultPage), nil
}

// htmlToText strips tags and returns the visible text of an HTML document.
func htmlToText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var (
		text strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return collapseWhitespace(text.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if hiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if hiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				text.Write(z.Text())
				text.WriteByte(' ')
			}
		}
	}
}

func hiddenTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// markdownToText renders markdown to HTML and strips the markup, leaving
// normalized plain text for embedding.
func markdownToText(data []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", err
	}
	return htmlToText(&buf)
}
