// Package planner turns a date-sorted list of posts into the set of pages a
// build has to materialize: the tag index, one page per tag and one page per
// post linked to its neighbours.
//
// The planner never sorts its input. Callers hand it records ordered by date,
// newest first, and neighbour links follow that order as given.
package planner

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// TagsRoute is the route of the page listing every tag.
const TagsRoute = "/tags"

// ContentRecord is one published post as returned by the content layer.
type ContentRecord struct {
	Path        string // unique canonical route, e.g. "/hello-world/"
	Tags        []string
	Title       string
	Description string
	Excerpt     string
	Date        time.Time
	DateText    string // Date formatted for display
	Body        string // raw Markdown
	SourceDir   string // directory holding the source file, if any
}

// Summary returns the description, or the excerpt when none was written.
func (r ContentRecord) Summary() string {
	if strings.TrimSpace(r.Description) != "" {
		return r.Description
	}
	return r.Excerpt
}

// TemplateKind names the template a directive is rendered with.
type TemplateKind int

const (
	AllTags TemplateKind = iota
	SingleTag
	Post
)

func (k TemplateKind) String() string {
	switch k {
	case AllTags:
		return "AllTags"
	case SingleTag:
		return "SingleTag"
	case Post:
		return "Post"
	default:
		return fmt.Sprintf("TemplateKind(%d)", int(k))
	}
}

// PageDirective asks the renderer to materialize one page.
// Context is an AllTagsContext, SingleTagContext or PostContext matching Kind.
type PageDirective struct {
	Route   string
	Kind    TemplateKind
	Context any
}

// AllTagsContext is the payload of the /tags page.
type AllTagsContext struct {
	Tags   []string       // distinct labels, ascending
	Counts map[string]int // posts per label
}

// Entries returns the tags as counted entries in label order.
func (c AllTagsContext) Entries() []TagEntry {
	out := make([]TagEntry, 0, len(c.Tags))
	for _, t := range c.Tags {
		out = append(out, CountedTag{Label: t, Count: c.Counts[t]})
	}
	return out
}

// SingleTagContext is the payload of a /tags/<tag> page.
type SingleTagContext struct {
	Tag   string
	Posts []ContentRecord
}

// Neighbor is the minimal reference needed to link to an adjacent post.
type Neighbor struct {
	Path  string
	Title string
}

// PostContext is the payload of a post page. Previous is the record before
// this one in the input order (the more recent post), Next the one after it.
type PostContext struct {
	Path     string
	Tags     []string
	Previous *Neighbor
	Next     *Neighbor
	Record   ContentRecord
}

// TagIndex maps each tag to the records carrying it, in scan order.
type TagIndex struct {
	buckets map[string][]ContentRecord
	order   []string
}

// Labels returns the tags in the order they were first seen.
func (ti TagIndex) Labels() []string {
	return slices.Clone(ti.order)
}

// Posts returns the bucket for tag.
func (ti TagIndex) Posts(tag string) []ContentRecord {
	return ti.buckets[tag]
}

// Len returns the number of distinct tags.
func (ti TagIndex) Len() int {
	return len(ti.order)
}

// BuildTagIndex groups records by tag. A record listing the same tag twice
// lands in that bucket twice.
func BuildTagIndex(records []ContentRecord) TagIndex {
	ti := TagIndex{buckets: make(map[string][]ContentRecord)}
	for _, r := range records {
		for _, tag := range r.Tags {
			if _, ok := ti.buckets[tag]; !ok {
				ti.order = append(ti.order, tag)
			}
			ti.buckets[tag] = append(ti.buckets[tag], r)
		}
	}
	return ti
}

// BuildTagDirectives emits the /tags page followed by one page per tag.
func BuildTagDirectives(ti TagIndex) []PageDirective {
	labels := make([]string, len(ti.order))
	copy(labels, ti.order)
	slices.SortFunc(labels, strings.Compare)
	counts := make(map[string]int, len(labels))
	for _, l := range labels {
		counts[l] = len(ti.buckets[l])
	}

	out := make([]PageDirective, 0, len(labels)+1)
	out = append(out, PageDirective{
		Route:   TagsRoute,
		Kind:    AllTags,
		Context: AllTagsContext{Tags: labels, Counts: counts},
	})
	for _, tag := range ti.order {
		out = append(out, PageDirective{
			Route: TagRoute(tag),
			Kind:  SingleTag,
			Context: SingleTagContext{
				Tag:   tag,
				Posts: ti.buckets[tag],
			},
		})
	}
	return out
}

// BuildPostDirectives emits one page per record, linked to its neighbours.
func BuildPostDirectives(records []ContentRecord) []PageDirective {
	out := make([]PageDirective, 0, len(records))
	for i, r := range records {
		ctx := PostContext{
			Path:   r.Path,
			Tags:   r.Tags,
			Record: r,
		}
		if i > 0 {
			ctx.Previous = neighborOf(records[i-1])
		}
		if i < len(records)-1 {
			ctx.Next = neighborOf(records[i+1])
		}
		out = append(out, PageDirective{Route: r.Path, Kind: Post, Context: ctx})
	}
	return out
}

func neighborOf(r ContentRecord) *Neighbor {
	return &Neighbor{Path: r.Path, Title: r.Title}
}

// Plan returns every directive for records: tag pages first, then posts.
func Plan(records []ContentRecord) []PageDirective {
	tags := BuildTagDirectives(BuildTagIndex(records))
	return append(tags, BuildPostDirectives(records)...)
}

// Querier is the upstream content layer. Query returns at most limit records
// sorted by date, newest first.
type Querier interface {
	Query(ctx context.Context, limit int) ([]ContentRecord, error)
}

// PlanFrom fetches records from q and plans them. A failed fetch returns no
// directives at all.
func PlanFrom(ctx context.Context, q Querier, limit int) ([]PageDirective, []ContentRecord, error) {
	records, err := q.Query(ctx, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("planner: query content: %w", err)
	}
	return Plan(records), records, nil
}

// TagRoute returns the route of the page for tag. The label is escaped as a
// single path segment.
func TagRoute(tag string) string {
	return TagsRoute + "/" + url.PathEscape(tag)
}
