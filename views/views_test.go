package views

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubsite/planner"
)

var testSite = SiteConfig{
	Name:        "Test Blog",
	URL:         "https://example.com",
	Description: "A blog",
	Author:      "Sam",
	Lang:        "en",
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func record(path, title string, year int, tags ...string) planner.ContentRecord {
	var date time.Time
	if year > 0 {
		date = time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return planner.ContentRecord{Path: path, Title: title, Date: date, Tags: tags, Excerpt: title + " excerpt"}
}

func TestPostPage(t *testing.T) {
	r := record("/b/", "B <post>", 2022, "go", "c#")
	r.Body = "Some *markdown*."
	html := render(t, Post(testSite, planner.PostContext{
		Path:     r.Path,
		Tags:     r.Tags,
		Previous: &planner.Neighbor{Path: "/c/", Title: "C"},
		Record:   r,
	}))

	assert.Contains(t, html, `<h1>B &lt;post&gt;</h1>`)
	assert.Contains(t, html, "<em>markdown</em>")
	assert.Contains(t, html, `<a href="/c/" rel="prev">`)
	assert.NotContains(t, html, `rel="next"`)
	assert.Contains(t, html, `href="/tags/c%23"`)
	assert.Contains(t, html, `<link rel="canonical" href="https://example.com/b/">`)
	assert.Contains(t, html, `data-progress`)
	assert.Contains(t, html, `"@type":"BlogPosting"`)
}

func TestAllTagsPage(t *testing.T) {
	html := render(t, AllTags(testSite, planner.AllTagsContext{
		Tags:   []string{"go", "web"},
		Counts: map[string]int{"go": 2, "web": 1},
	}))
	assert.Contains(t, html, `<a class="tag" href="/tags/go">go <span class="tag-count">2</span></a>`)
	assert.Less(t, strings.Index(html, "/tags/go"), strings.Index(html, "/tags/web"))

	empty := render(t, AllTags(testSite, planner.AllTagsContext{Tags: []string{}}))
	assert.Contains(t, empty, "No tags yet.")
}

func TestSingleTagPage(t *testing.T) {
	html := render(t, SingleTag(testSite, planner.SingleTagContext{
		Tag:   "go",
		Posts: []planner.ContentRecord{record("/a/", "A", 2021, "go")},
	}))
	assert.Contains(t, html, "<h1>go</h1>")
	assert.Contains(t, html, `<a href="/a/">A</a>`)
	assert.Contains(t, html, "A excerpt")
	assert.Contains(t, html, `href="https://example.com/tags/go"`)
}

func TestHomePage(t *testing.T) {
	html := render(t, Home(testSite, []planner.ContentRecord{record("/a/", "A", 2021)}, "/page-data/1.json"))
	assert.Contains(t, html, `data-next="/page-data/1.json"`)
	assert.Contains(t, html, "data-feed-sentinel")
	assert.Contains(t, html, `"@type":"WebSite"`)

	last := render(t, Home(testSite, nil, ""))
	assert.NotContains(t, last, "data-next")
	assert.NotContains(t, last, "data-feed-sentinel")
}

func TestTimelinePage(t *testing.T) {
	html := render(t, Timeline(testSite, []planner.ContentRecord{
		record("/c/", "C", 2022),
		record("/b/", "B", 2021),
		record("/a/", "A", 0),
	}))
	assert.Less(t, strings.Index(html, "<h2>2022</h2>"), strings.Index(html, "<h2>2021</h2>"))
	assert.Contains(t, html, "<h2>Undated</h2>")
}

func TestAdminPages(t *testing.T) {
	login := render(t, AdminLogin(testSite, true, "tok"))
	assert.Contains(t, login, `name="_csrf" value="tok"`)
	assert.Contains(t, login, "Wrong password.")

	posts := []BlogPost{{Slug: "2020/notes", Title: "Notes", Date: "2020-01-01", Tags: []string{"go"}}}
	dash := render(t, AdminDashboard(testSite, posts, "saved", "tok", true))
	assert.Contains(t, dash, `href="/admin/post/2020/notes/"`)
	assert.Contains(t, dash, `action="/admin/delete/2020/notes/"`)
	assert.Contains(t, dash, "draft")

	readOnly := render(t, AdminDashboard(testSite, posts, "", "tok", false))
	assert.NotContains(t, readOnly, "/admin/post/")

	form := render(t, AdminForm(testSite, BlogPost{Title: "T", Tags: []string{"a", "b"}, Published: true}, "tok"))
	assert.Contains(t, form, `value="a, b"`)
	assert.Contains(t, form, " checked")
}

func TestGroupByYear(t *testing.T) {
	got := GroupByYear([]planner.ContentRecord{
		record("/c/", "C", 2022),
		record("/b/", "B", 2022),
		record("/a/", "A", 2020),
	})
	years := make([]int, len(got))
	for i, g := range got {
		years[i] = g.Year
	}
	if diff := cmp.Diff([]int{2022, 2020}, years); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, got[0].Posts, 2)
	assert.Empty(t, GroupByYear(nil))
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base, route, want string
	}{
		{"https://example.com", "/", "https://example.com/"},
		{"https://example.com", "/a/", "https://example.com/a/"},
		{"https://example.com/blog", "/a/", "https://example.com/blog/a/"},
		{"https://example.com", "/tags/c%23", "https://example.com/tags/c%23"},
		{"https://example.com", "/hello%20world/", "https://example.com/hello%20world/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.route); got != tt.want {
			t.Errorf("BuildURL(%q, %q) = %q, want %q", tt.base, tt.route, got, tt.want)
		}
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	r := record("/a/", "A", 2021, "go", "web")
	r.Description = "About A"
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(BlogPostingJsonLD(testSite, r)), &data))
	assert.Equal(t, "A", data["headline"])
	assert.Equal(t, "About A", data["description"])
	assert.Equal(t, "2021-03-01", data["datePublished"])
	assert.Equal(t, "go, web", data["keywords"])
	assert.Equal(t, "https://example.com/a/", data["url"])

	undated := record("/b/", "B", 0)
	data = nil
	require.NoError(t, json.Unmarshal([]byte(BlogPostingJsonLD(testSite, undated)), &data))
	_, hasDate := data["datePublished"]
	assert.False(t, hasDate)
}
