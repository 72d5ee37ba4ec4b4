package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FrontMatter holds the metadata block at the top of a Markdown file.
// It may be TOML between "+++" lines or YAML between "---" lines.
type FrontMatter struct {
	Title       string   `toml:"title" yaml:"title"`
	Date        Date     `toml:"date" yaml:"date"`
	Description string   `toml:"description" yaml:"description"`
	Tags        []string `toml:"tags" yaml:"tags"`
	Draft       bool     `toml:"draft" yaml:"draft"`
}

// Date accepts the date spellings authors actually write.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// UnmarshalText parses a date in any of the supported layouts. Dates without
// a zone are taken as UTC.
func (d *Date) UnmarshalText(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized date %q", s)
}

var (
	tomlFence = regexp.MustCompile(`(?m)^\s*\+\+\+\s*$`)
	yamlFence = regexp.MustCompile(`(?m)^\s*---\s*$`)
)

// splitFrontMatter separates the front matter block from the Markdown body.
// The block must open on the first non-blank line.
func splitFrontMatter(x []byte, fence *regexp.Regexp) (fm, body []byte, ok bool) {
	subs := fence.Split(string(x), 3)
	if len(subs) != 3 {
		return nil, x, false
	}
	if s := strings.TrimSpace(subs[0]); len(s) > 0 {
		return nil, x, false
	}
	return []byte(strings.TrimSpace(subs[1])), []byte(strings.TrimSpace(subs[2])), true
}

// ParseFrontMatter extracts and decodes the front matter of a Markdown file
// and returns the remaining body. Files without front matter yield a zero
// FrontMatter and the whole file as body.
func ParseFrontMatter(x []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	if block, body, ok := splitFrontMatter(x, tomlFence); ok {
		if err := toml.Unmarshal(block, &fm); err != nil {
			return fm, nil, fmt.Errorf("toml front matter: %w", err)
		}
		return fm, body, nil
	}
	if block, body, ok := splitFrontMatter(x, yamlFence); ok {
		if err := yaml.Unmarshal(block, &fm); err != nil {
			return fm, nil, fmt.Errorf("yaml front matter: %w", err)
		}
		return fm, body, nil
	}
	return fm, x, nil
}
