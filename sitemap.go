package pubsite

import (
	"encoding/xml"
	"io"

	"github.com/eringen/pubsite/planner"
	"github.com/eringen/pubsite/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap lists the home page, the listings, every directive route and
// the post dates as lastmod.
func writeSitemap(w io.Writer, cfg views.SiteConfig, directives []planner.PageDirective) error {
	urls := []sitemapURL{
		{Loc: views.BuildURL(cfg.URL, "/")},
		{Loc: views.BuildURL(cfg.URL, timelineRoute)},
	}
	for _, d := range directives {
		u := sitemapURL{Loc: views.BuildURL(cfg.URL, d.Route)}
		if pc, ok := d.Context.(planner.PostContext); ok && !pc.Record.Date.IsZero() {
			u.LastMod = pc.Record.Date.Format(dateLayout)
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(sitemap)
}
