// Package views holds the page components a build renders: the post, tag and
// listing pages plus the admin screens of the preview server.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubsite/planner"
)

//go:embed templates/*.html
var templateFS embed.FS

// shared templates every page is parsed with.
var shared = []string{"templates/layout.html", "templates/partials.html"}

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"home", "post", "alltags", "singletag", "timeline", "notfound", "login", "dashboard", "form"} {
		files := append([]string{"templates/" + name + ".html"}, shared...)
		pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, files...))
	}
}

// page executes the layout of the named page set with data.
func page(name string, data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("views: unknown page %q", name)
		}
		return t.ExecuteTemplate(w, "layout", data)
	})
}

func meta(cfg SiteConfig, title, description, route, ogType string) PageMeta {
	if description == "" {
		description = cfg.Description
	}
	return PageMeta{
		Title:       title,
		Description: description,
		URL:         BuildURL(cfg.URL, route),
		OGType:      ogType,
	}
}

// Home renders the front page feed. next is the URL of the first
// infinite-scroll chunk, or "" when every post is already on the page.
func Home(cfg SiteConfig, posts []planner.ContentRecord, next string) templ.Component {
	return page("home", pageData{
		Site:   cfg,
		Meta:   meta(cfg, "", "", "/", "website"),
		JSONLD: template.JS(WebsiteJsonLD(cfg)),
		Body:   homeBody{Posts: posts, Next: next},
	})
}

// Post renders a single post with its previous/next navigation.
func Post(cfg SiteConfig, pc planner.PostContext) templ.Component {
	return page("post", pageData{
		Site:     cfg,
		Meta:     meta(cfg, pc.Record.Title, pc.Record.Summary(), pc.Path, "article"),
		JSONLD:   template.JS(BlogPostingJsonLD(cfg, pc.Record)),
		Progress: true,
		Body:     pc,
	})
}

// AllTags renders the index of every tag with its post count.
func AllTags(cfg SiteConfig, tc planner.AllTagsContext) templ.Component {
	return page("alltags", pageData{
		Site: cfg,
		Meta: meta(cfg, "Tags", "", planner.TagsRoute, "website"),
		Body: tc,
	})
}

// SingleTag renders the posts carrying one tag.
func SingleTag(cfg SiteConfig, tc planner.SingleTagContext) templ.Component {
	return page("singletag", pageData{
		Site: cfg,
		Meta: meta(cfg, tc.Tag, "", planner.TagRoute(tc.Tag), "website"),
		Body: tc,
	})
}

// Timeline renders every post grouped by year.
func Timeline(cfg SiteConfig, records []planner.ContentRecord) templ.Component {
	return page("timeline", pageData{
		Site: cfg,
		Meta: meta(cfg, "Timeline", "", "/timeline/", "website"),
		Body: GroupByYear(records),
	})
}

func NotFound(cfg SiteConfig) templ.Component {
	return page("notfound", pageData{
		Site: cfg,
		Meta: meta(cfg, "Not found", "", "/404.html", "website"),
	})
}

func AdminLogin(cfg SiteConfig, showError bool, csrfToken string) templ.Component {
	return page("login", pageData{
		Site: cfg,
		Meta: meta(cfg, "Admin", "", "/admin/", "website"),
		Body: adminBody{ShowError: showError, CSRF: csrfToken},
	})
}

// AdminDashboard lists every stored post. canEdit is false when the site is
// built from files and the store is read-only from the admin's view.
func AdminDashboard(cfg SiteConfig, posts []BlogPost, message, csrfToken string, canEdit bool) templ.Component {
	return page("dashboard", pageData{
		Site: cfg,
		Meta: meta(cfg, "Dashboard", "", "/admin/", "website"),
		Body: adminBody{Posts: posts, Message: message, CSRF: csrfToken, CanEdit: canEdit},
	})
}

func AdminForm(cfg SiteConfig, post BlogPost, csrfToken string) templ.Component {
	return page("form", pageData{
		Site: cfg,
		Meta: meta(cfg, "Edit post", "", "/admin/", "website"),
		Body: adminBody{Post: post, CSRF: csrfToken, CanEdit: true},
	})
}
