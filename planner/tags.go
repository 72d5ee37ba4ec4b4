package planner

import (
	"slices"
	"strings"
)

// TagEntry is a tag as handed to a tag list: either a bare label or a label
// with the number of posts carrying it.
type TagEntry interface {
	tagEntry()
}

// BareTag is a tag known only by its label.
type BareTag string

// CountedTag is a tag with its post count.
type CountedTag struct {
	Label string
	Count int
}

func (BareTag) tagEntry()    {}
func (CountedTag) tagEntry() {}

// TagCount is the normalized form of a TagEntry. Count is zero for bare tags.
type TagCount struct {
	Label string
	Count int
}

// HasCount reports whether the entry carried a count.
func (t TagCount) HasCount() bool {
	return t.Count > 0
}

// Route returns the tag page route.
func (t TagCount) Route() string {
	return TagRoute(t.Label)
}

// Bare wraps plain labels as entries.
func Bare(labels []string) []TagEntry {
	out := make([]TagEntry, 0, len(labels))
	for _, l := range labels {
		out = append(out, BareTag(l))
	}
	return out
}

// NormalizeTags extracts label and count from every entry, keeping the
// input order.
func NormalizeTags(entries []TagEntry) []TagCount {
	out := make([]TagCount, 0, len(entries))
	for _, e := range entries {
		switch t := e.(type) {
		case BareTag:
			out = append(out, TagCount{Label: string(t)})
		case CountedTag:
			out = append(out, TagCount{Label: t.Label, Count: t.Count})
		}
	}
	return out
}

// SortTagCounts orders tags by label, ascending.
func SortTagCounts(tags []TagCount) {
	slices.SortStableFunc(tags, func(a, b TagCount) int {
		return strings.Compare(a.Label, b.Label)
	})
}
