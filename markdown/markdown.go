// Package markdown renders post bodies to HTML and derives plain-text
// excerpts from them.
package markdown

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

// DefaultExcerptLength matches the excerpt length used on listing pages.
const DefaultExcerptLength = 140

const extensions = blackfriday.CommonExtensions | blackfriday.Footnotes | blackfriday.AutoHeadingIDs

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write(Render([]byte(content)))
		return err
	})
}

// Render converts Markdown to HTML. Links with unsafe schemes are not
// rendered as anchors.
func Render(src []byte) []byte {
	r := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.HrefTargetBlank,
	})
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	return blackfriday.Run(src, blackfriday.WithExtensions(extensions), blackfriday.WithRenderer(r))
}

// PlainText strips tags from an HTML fragment and collapses whitespace.
// The contents of pre, script and style elements are dropped.
func PlainText(fragment []byte) string {
	var b strings.Builder
	z := html.NewTokenizer(bytes.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "pre", "script", "style":
				skip++
			case "p", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "td", "th":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "pre", "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "td", "th":
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Excerpt renders md and returns at most n runes of its text, cut at a word
// boundary where possible and suffixed with an ellipsis when shortened.
func Excerpt(md string, n int) string {
	if n <= 0 {
		n = DefaultExcerptLength
	}
	return Prune(PlainText(Render([]byte(md))), n)
}

// Prune shortens s to at most n runes plus an ellipsis.
func Prune(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := runes[:n]
	// Back up to the last space unless that throws away most of the text.
	for i := len(cut) - 1; i > n/2; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
