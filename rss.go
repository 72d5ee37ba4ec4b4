package pubsite

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/eringen/pubsite/planner"
	"github.com/eringen/pubsite/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

// writeFeed encodes an RSS 2.0 feed of records to w.
func writeFeed(w io.Writer, cfg views.SiteConfig, records []planner.ContentRecord) error {
	items := make([]rssItem, 0, len(records))
	for _, r := range records {
		pubDate := ""
		if !r.Date.IsZero() {
			pubDate = r.Date.Format(time.RFC1123Z)
		}
		postURL := views.BuildURL(cfg.URL, r.Path)
		items = append(items, rssItem{
			Title:       r.Title,
			Link:        postURL,
			Description: r.Summary(),
			PubDate:     pubDate,
			GUID:        postURL,
			Categories:  r.Tags,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        views.BuildURL(cfg.URL, "/"),
			Description: cfg.Description,
			Language:    cfg.Lang,
			Items:       items,
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(feed)
}
