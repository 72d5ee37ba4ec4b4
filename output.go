package pubsite

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrDuplicateRoute is returned when two pages of one build map to the
	// same output file.
	ErrDuplicateRoute = errors.New("pubsite: duplicate route")
	// ErrUnsafeRoute is returned for routes that would be written outside
	// the output directory.
	ErrUnsafeRoute = errors.New("pubsite: unsafe route")
)

// pageFile maps a page route to its file below root: "/a/b/" and "/a/b"
// both become root/a/b/index.html. Routes are unescaped first, so
// "/tags/c%23" lands in root/tags/c#/index.html.
func pageFile(root, route string) (string, error) {
	p, err := url.PathUnescape(route)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsafeRoute, route)
	}
	rel, err := safeRel(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, route)
	}
	return filepath.Join(root, rel, "index.html"), nil
}

// assetFile maps a slash separated file name such as "feed.xml" or
// "page-data/1.json" to its location below root.
func assetFile(root, name string) (string, error) {
	rel, err := safeRel(name)
	if err != nil || rel == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafeRoute, name)
	}
	return filepath.Join(root, rel), nil
}

func safeRel(p string) (string, error) {
	if strings.ContainsAny(p, "\\\x00") {
		return "", ErrUnsafeRoute
	}
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
		case ".", "..":
			return "", ErrUnsafeRoute
		default:
			parts = append(parts, seg)
		}
	}
	return filepath.Join(parts...), nil
}

// fileSet records which route owns each output file. Files are compared
// case-insensitively: "tags/Go" and "tags/go" are one file on macOS and
// Windows.
type fileSet struct {
	mu     sync.Mutex
	claims map[string]claimed
}

type claimed struct {
	file, route string
}

func newFileSet() *fileSet {
	return &fileSet{claims: make(map[string]claimed)}
}

func (s *fileSet) claim(file, route string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(file)
	if prev, ok := s.claims[key]; ok {
		if prev.file != file {
			return fmt.Errorf("%w: %q and %q differ only in case (%s)", ErrDuplicateRoute, prev.route, route, file)
		}
		return fmt.Errorf("%w: %q and %q both write %s", ErrDuplicateRoute, prev.route, route, file)
	}
	s.claims[key] = claimed{file: file, route: route}
	return nil
}

func writeFile(file string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies every regular file of fsys into dst, overwriting what is
// there.
func copyTree(dst string, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dst, filepath.FromSlash(p)), data)
	})
}

// swapDir replaces dst with the fully written src. The previous dst is moved
// aside first and restored when the final rename fails.
func swapDir(src, dst, id string) error {
	old := dst + ".old-" + id
	hadOld := false
	if _, err := os.Stat(dst); err == nil {
		if err := os.Rename(dst, old); err != nil {
			return err
		}
		hadOld = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		if hadOld {
			_ = os.Rename(old, dst)
		}
		return err
	}
	if hadOld {
		return os.RemoveAll(old)
	}
	return nil
}
