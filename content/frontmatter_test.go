package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatterTOML(t *testing.T) {
	src := []byte(`+++
title = "Hello"
date = 2024-03-05
tags = ["go", "web"]
description = "First post"
+++

Body text.`)
	fm, body, err := ParseFrontMatter(src)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fm.Title)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), fm.Date.Time)
	assert.Equal(t, []string{"go", "web"}, fm.Tags)
	assert.Equal(t, "First post", fm.Description)
	assert.Equal(t, "Body text.", string(body))
}

func TestParseFrontMatterYAML(t *testing.T) {
	src := []byte(`---
title: Hello YAML
date: 2019-08-12T10:30:00Z
tags:
  - react
  - gatsby
draft: true
---
Body`)
	fm, body, err := ParseFrontMatter(src)
	require.NoError(t, err)
	assert.Equal(t, "Hello YAML", fm.Title)
	assert.Equal(t, time.Date(2019, time.August, 12, 10, 30, 0, 0, time.UTC), fm.Date.Time)
	assert.Equal(t, []string{"react", "gatsby"}, fm.Tags)
	assert.True(t, fm.Draft)
	assert.Equal(t, "Body", string(body))
}

func TestParseFrontMatterQuotedDate(t *testing.T) {
	fm, _, err := ParseFrontMatter([]byte("---\ndate: \"2020-01-02\"\n---\nx"))
	require.NoError(t, err)
	assert.Equal(t, 2020, fm.Date.Year())
}

func TestParseFrontMatterMissing(t *testing.T) {
	src := []byte("# Just markdown\n\n---\n\nafter a rule")
	fm, body, err := ParseFrontMatter(src)
	require.NoError(t, err)
	assert.Empty(t, fm.Title)
	assert.Equal(t, string(src), string(body))
}

func TestParseFrontMatterBadDate(t *testing.T) {
	_, _, err := ParseFrontMatter([]byte("---\ndate: yesterday\n---\nx"))
	assert.Error(t, err)
}

func TestParseFrontMatterBadTOML(t *testing.T) {
	_, _, err := ParseFrontMatter([]byte("+++\ntitle = \n+++\nx"))
	assert.Error(t, err)
}
