package pubsite

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/views"
)

// Import copies every Markdown post under root into the SQLite store,
// drafts included. Posts keep their routes: "2020/notes.md" is stored under
// the slug "2020/notes". It returns the number of posts written.
func (a *App) Import(ctx context.Context, root string) (int, error) {
	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return 0, fmt.Errorf("pubsite: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}
	docs, err := content.NewDir(root).Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("pubsite: import: %w", err)
	}

	n := 0
	for _, doc := range docs {
		slug, err := url.PathUnescape(strings.Trim(doc.Path, "/"))
		if err != nil || slug == "" {
			a.Logger.Warn("import: skipping document without a slug", zap.String("file", doc.File))
			continue
		}
		if ReservedSlug(slug) {
			return n, fmt.Errorf("pubsite: import %s: slug %q is reserved for generated pages", doc.File, slug)
		}
		tags, err := content.CleanTags(doc.Tags)
		if err != nil {
			return n, fmt.Errorf("pubsite: import %s: %w", doc.File, err)
		}
		post := views.BlogPost{
			Slug:        slug,
			Title:       doc.Title,
			Tags:        tags,
			Description: doc.Description,
			Content:     doc.Body,
			Published:   !doc.Draft,
		}
		if !doc.Date.IsZero() {
			post.Date = doc.Date.Format(dateLayout)
		}
		if err := a.Store.SavePost(ctx, post); err != nil {
			return n, fmt.Errorf("pubsite: import %s: %w", doc.File, err)
		}
		if doc.Bundle() {
			a.Logger.Warn("import: bundle files are not stored", zap.String("file", doc.File))
		}
		a.Logger.Debug("imported", zap.String("slug", slug))
		n++
	}
	return n, nil
}
