// Package content loads posts from a directory of Markdown files and serves
// them to the planner sorted newest first.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/planner"
)

// DisplayDateLayout is how post dates are shown on pages.
const DisplayDateLayout = "January 02, 2006"

var (
	// ErrUnsafeTag is returned for tag labels that cannot be a single route segment.
	ErrUnsafeTag = errors.New("unsafe tag label")
	// ErrDuplicatePath is returned when two files map to the same route.
	ErrDuplicatePath = errors.New("duplicate content path")
)

// Document is one parsed Markdown file.
type Document struct {
	Path string // route derived from the file location
	File string // slash-separated path relative to the content root
	FrontMatter
	Body string
}

// Bundle reports whether the document is an index.md owning its directory.
func (d Document) Bundle() bool {
	return path.Base(d.File) == "index.md"
}

// Record converts the document into a planner record.
func (d Document) Record(excerptLength int) planner.ContentRecord {
	title := d.Title
	if title == "" {
		title = d.Path
	}
	return planner.ContentRecord{
		Path:        d.Path,
		Tags:        d.Tags,
		Title:       title,
		Description: d.Description,
		Excerpt:     markdown.Excerpt(d.Body, excerptLength),
		Date:        d.Date.Time,
		DateText:    FormatDate(d.Date.Time),
		Body:        d.Body,
	}
}

// FormatDate renders t for display, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// Dir is a content source backed by a directory tree of Markdown files.
type Dir struct {
	Root          string
	IncludeDrafts bool
	ExcerptLength int
	Now           func() time.Time
}

// NewDir returns a Dir reading from root.
func NewDir(root string) *Dir {
	return &Dir{
		Root:          root,
		ExcerptLength: markdown.DefaultExcerptLength,
		Now:           time.Now,
	}
}

// SlugFromPath derives a route from a file location relative to the content
// root: "hello/index.md" becomes "/hello/" and "2020/notes.md" "/2020/notes/".
// The result is a URL path, escaped where needed.
func SlugFromPath(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(rel) == "index" {
		rel = path.Dir(rel)
	}
	if rel == "." || rel == "" {
		return "/"
	}
	return RoutePath(rel)
}

// RoutePath escapes a slash separated slug into a trailing-slash route.
func RoutePath(slug string) string {
	slug = strings.Trim(slug, "/")
	if slug == "" {
		return "/"
	}
	return (&url.URL{Path: "/" + slug + "/"}).EscapedPath()
}

// Documents parses every Markdown file under Root, drafts included, in
// lexical file order. Hidden entries and those starting with "_" are skipped.
func (d *Dir) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(d.Root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if p != d.Root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".md") {
			return nil
		}
		rel, err := filepath.Rel(d.Root, p)
		if err != nil {
			return err
		}
		doc, err := readDocument(p, rel)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("content: load %s: %w", d.Root, err)
	}
	return docs, nil
}

func readDocument(file, rel string) (Document, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return Document{}, err
	}
	fm, body, err := ParseFrontMatter(b)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", rel, err)
	}
	tags, err := CleanTags(fm.Tags)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", rel, err)
	}
	fm.Tags = tags
	return Document{
		Path:        SlugFromPath(rel),
		File:        filepath.ToSlash(rel),
		FrontMatter: fm,
		Body:        string(body),
	}, nil
}

// CleanTags trims labels and drops empty ones. Labels that cannot stand as
// one route segment are rejected.
func CleanTags(tags []string) ([]string, error) {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if t == "." || t == ".." || strings.ContainsAny(t, `/\`) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeTag, t)
		}
		out = append(out, t)
	}
	return out, nil
}

// Query returns up to limit published posts, newest first. Posts sharing a
// date are ordered by path. A limit of zero or less returns everything.
func (d *Dir) Query(ctx context.Context, limit int) ([]planner.ContentRecord, error) {
	docs, err := d.Documents(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	seen := make(map[string]string, len(docs))
	var records []planner.ContentRecord
	for _, doc := range docs {
		if prev, ok := seen[doc.Path]; ok {
			return nil, fmt.Errorf("content: %w: %s and %s both map to %s", ErrDuplicatePath, prev, doc.File, doc.Path)
		}
		seen[doc.Path] = doc.File
		if !d.IncludeDrafts && (doc.Draft || doc.Date.After(now)) {
			continue
		}
		r := doc.Record(d.ExcerptLength)
		if doc.Bundle() {
			r.SourceDir = filepath.Join(d.Root, filepath.FromSlash(path.Dir(doc.File)))
		}
		records = append(records, r)
	}
	SortRecords(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SortRecords orders records by date, newest first, then by path.
func SortRecords(records []planner.ContentRecord) {
	slices.SortStableFunc(records, func(a, b planner.ContentRecord) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}
