package views

import (
	"encoding/json"
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/planner"
)

// BuildURL joins a route onto a base URL. Routes may be escaped or raw;
// a trailing slash in route is kept.
func BuildURL(base, route string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + route
	}
	trailing := strings.HasSuffix(route, "/")
	if ru, err := url.Parse(route); err == nil {
		route = ru.Path
	}
	u.Path = path.Join("/", u.Path, route)
	if trailing && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// GroupByYear splits date-sorted records into consecutive per-year groups.
// Undated records get year 0.
func GroupByYear(records []planner.ContentRecord) []YearGroup {
	var out []YearGroup
	for _, r := range records {
		y := 0
		if !r.Date.IsZero() {
			y = r.Date.Year()
		}
		if n := len(out); n == 0 || out[n-1].Year != y {
			out = append(out, YearGroup{Year: y})
		}
		out[len(out)-1].Posts = append(out[len(out)-1].Posts, r)
	}
	return out
}

// JoinTags formats a tag slice as a comma-separated string for form fields.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL, "/"),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post planner.ContentRecord) string {
	postURL := BuildURL(cfg.URL, post.Path)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Summary(),
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !post.Date.IsZero() {
		data["datePublished"] = post.Date.Format("2006-01-02")
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var funcs = template.FuncMap{
	"markdown": func(md string) template.HTML {
		return template.HTML(markdown.Render([]byte(md)))
	},
	"bare":     planner.Bare,
	"tagList":  planner.NormalizeTags,
	"joinTags": JoinTags,
}
