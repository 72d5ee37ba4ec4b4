package pubsite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFile(t *testing.T) {
	root := filepath.FromSlash("/out")
	tests := []struct {
		route string
		want  string
	}{
		{"/", "/out/index.html"},
		{"/hello/", "/out/hello/index.html"},
		{"/tags", "/out/tags/index.html"},
		{"/tags/c%23", "/out/tags/c#/index.html"},
		{"/tags/%E4%B8%AD%E6%96%87", "/out/tags/中文/index.html"},
		{"/hello%20world/", "/out/hello world/index.html"},
	}
	for _, tt := range tests {
		got, err := pageFile(root, tt.route)
		require.NoError(t, err, tt.route)
		assert.Equal(t, filepath.FromSlash(tt.want), got, tt.route)
	}
}

func TestPageFileUnsafe(t *testing.T) {
	for _, route := range []string{"/../x/", "/a/%2E%2E/b", "/a\\b/", "/bad%zz/", "/./"} {
		_, err := pageFile("out", route)
		assert.ErrorIs(t, err, ErrUnsafeRoute, route)
	}
}

func TestAssetFile(t *testing.T) {
	got, err := assetFile("out", "page-data/1.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "page-data", "1.json"), got)

	for _, name := range []string{"", "/", "../feed.xml"} {
		_, err := assetFile("out", name)
		assert.ErrorIs(t, err, ErrUnsafeRoute, name)
	}
}

func TestFileSetClaim(t *testing.T) {
	s := newFileSet()
	require.NoError(t, s.claim("out/a/index.html", "/a/"))
	require.NoError(t, s.claim("out/b/index.html", "/b/"))
	assert.ErrorIs(t, s.claim("out/a/index.html", "/a"), ErrDuplicateRoute)
}

func TestFileSetClaimCaseOnlyClash(t *testing.T) {
	s := newFileSet()
	require.NoError(t, s.claim("out/tags/go/index.html", "/tags/go"))
	err := s.claim("out/tags/Go/index.html", "/tags/Go")
	require.ErrorIs(t, err, ErrDuplicateRoute)
	assert.Contains(t, err.Error(), "differ only in case")
}

func TestReservedSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"tags", true},
		{"tags/go", true},
		{"/timeline/", true},
		{"Public/x", true},
		{"page-data", true},
		{"feed.xml", true},
		{"404.html", true},
		{"tagsoup", false},
		{"notes/tags", false},
		{"hello-world", false},
	}
	for _, tt := range tests {
		if got := ReservedSlug(tt.slug); got != tt.want {
			t.Errorf("ReservedSlug(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}

func TestSwapDir(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "public")
	src := filepath.Join(root, "stage")
	writeTestFile(t, dst, "old.txt", "old")
	writeTestFile(t, src, "new.txt", "new")

	require.NoError(t, swapDir(src, dst, "id"))
	assert.FileExists(t, filepath.Join(dst, "new.txt"))
	assert.NoFileExists(t, filepath.Join(dst, "old.txt"))
	assert.NoDirExists(t, src)
	assert.NoDirExists(t, dst+".old-id")

	// First build: nothing to move aside.
	src2 := filepath.Join(root, "stage2")
	dst2 := filepath.Join(root, "fresh")
	writeTestFile(t, src2, "a.txt", "a")
	require.NoError(t, swapDir(src2, dst2, "id2"))
	b, err := os.ReadFile(filepath.Join(dst2, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(b))
}
