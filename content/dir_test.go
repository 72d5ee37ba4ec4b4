package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func post(title, date string, tags string) string {
	return "---\ntitle: " + title + "\ndate: " + date + "\ntags: [" + tags + "]\n---\n\nSome body for " + title + ".\n"
}

func testDir(root string) *Dir {
	d := NewDir(root)
	d.Now = func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }
	return d
}

func TestSlugFromPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello-world/index.md", "/hello-world/"},
		{"2020/notes.md", "/2020/notes/"},
		{"index.md", "/"},
		{"about.md", "/about/"},
		{"hello world.md", "/hello%20world/"},
		{filepath.Join("a", "b", "index.md"), "/a/b/"},
	}
	for _, tt := range tests {
		if got := SlugFromPath(tt.input); got != tt.expected {
			t.Errorf("SlugFromPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestQuerySortsNewestFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old/index.md", post("Old", "2020-01-01", "go"))
	writeFile(t, root, "new/index.md", post("New", "2022-01-01", "go, web"))
	writeFile(t, root, "mid.md", post("Mid", "2021-01-01", ""))

	records, err := testDir(root).Query(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "/new/", records[0].Path)
	assert.Equal(t, "/mid/", records[1].Path)
	assert.Equal(t, "/old/", records[2].Path)
	assert.Equal(t, []string{"go", "web"}, records[0].Tags)
	assert.Empty(t, records[1].Tags)
	assert.Equal(t, "January 01, 2022", records[0].DateText)
	assert.Equal(t, "Some body for New.", records[0].Excerpt)
	assert.Equal(t, filepath.Join(root, "new"), records[0].SourceDir)
	assert.Empty(t, records[1].SourceDir)
}

func TestQueryTiesBrokenByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", post("B", "2021-01-01", ""))
	writeFile(t, root, "a.md", post("A", "2021-01-01", ""))

	records, err := testDir(root).Query(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/a/", records[0].Path)
}

func TestQueryLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", post("A", "2021-01-01", ""))
	writeFile(t, root, "b.md", post("B", "2021-01-02", ""))
	writeFile(t, root, "c.md", post("C", "2021-01-03", ""))

	records, err := testDir(root).Query(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/c/", records[0].Path)
	assert.Equal(t, "/b/", records[1].Path)
}

func TestQuerySkipsDraftsAndFuturePosts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "live.md", post("Live", "2021-01-01", ""))
	writeFile(t, root, "future.md", post("Future", "2030-01-01", ""))
	writeFile(t, root, "draft.md", "---\ntitle: Draft\ndate: 2021-01-01\ndraft: true\n---\nx")

	d := testDir(root)
	records, err := d.Query(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/live/", records[0].Path)

	d.IncludeDrafts = true
	records, err = d.Query(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestQuerySkipsHiddenAndNonMarkdown(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", post("A", "2021-01-01", ""))
	writeFile(t, root, ".git/notes.md", post("Hidden", "2021-01-01", ""))
	writeFile(t, root, "_drafts/wip.md", post("WIP", "2021-01-01", ""))
	writeFile(t, root, "a/cover.png", "not really a png")

	records, err := testDir(root).Query(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestQueryTitleDefaultsToPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "untitled.md", "---\ndate: 2021-01-01\n---\nbody")

	records, err := testDir(root).Query(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/untitled/", records[0].Title)
}

func TestQueryRejectsUnsafeTag(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", post("A", "2021-01-01", "ci/cd"))

	_, err := testDir(root).Query(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsafeTag))
}

func TestQueryRejectsDuplicatePaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "same.md", post("One", "2021-01-01", ""))
	writeFile(t, root, "same/index.md", post("Two", "2021-01-02", ""))

	_, err := testDir(root).Query(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicatePath))
}

func TestQueryMissingRoot(t *testing.T) {
	_, err := testDir(filepath.Join(t.TempDir(), "nope")).Query(context.Background(), 0)
	assert.Error(t, err)
}

func TestQueryCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", post("A", "2021-01-01", ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testDir(root).Query(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanTags(t *testing.T) {
	got, err := CleanTags([]string{" go ", "", "web", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, got)

	for _, bad := range []string{"..", ".", `a\b`, "a/b"} {
		_, err := CleanTags([]string{bad})
		assert.ErrorIs(t, err, ErrUnsafeTag, "tag %q", bad)
	}
}
