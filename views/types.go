package views

import (
	"html/template"

	"github.com/eringen/pubsite/planner"
)

// SiteConfig holds the site-wide settings templates read.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
	Lang        string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// BlogPost is a post as edited in the admin and stored in SQLite.
type BlogPost struct {
	Title       string
	Date        string // YYYY-MM-DD
	Tags        []string
	Description string
	Slug        string
	Content     string
	Published   bool
}

// YearGroup is one section of the timeline.
type YearGroup struct {
	Year  int
	Posts []planner.ContentRecord
}

// pageData is what every page template receives.
type pageData struct {
	Site     SiteConfig
	Meta     PageMeta
	JSONLD   template.JS
	Progress bool
	Body     any
}

type homeBody struct {
	Posts []planner.ContentRecord
	Next  string
}

type adminBody struct {
	Posts     []BlogPost
	Post      BlogPost
	Message   string
	ShowError bool
	CSRF      string
	CanEdit   bool
}
