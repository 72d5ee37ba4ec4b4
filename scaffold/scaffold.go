// Package scaffold provides the embedded starter files used by `pubsite new`.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax when they have a .tmpl suffix and are
// copied verbatim otherwise.
//
//go:embed all:templates
var Templates embed.FS

// Data holds the template variables passed to every scaffold template.
type Data struct {
	ProjectName string
	SiteName    string
	Date        string // YYYY-MM-DD, used for the sample post
}

// Write renders the scaffold into dir, which must not exist yet. Each created
// file is reported to out.
func Write(dir string, data Data, out io.Writer) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	const root = "templates"
	return fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, filepath.FromSlash(path))
		if err != nil {
			return err
		}
		outPath := filepath.Join(dir, relPath)
		if filepath.Base(outPath) == "gitignore" {
			outPath = filepath.Join(filepath.Dir(outPath), ".gitignore")
		}
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if strings.HasSuffix(outPath, ".tmpl") {
			outPath = strings.TrimSuffix(outPath, ".tmpl")
			tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
			if err != nil {
				return fmt.Errorf("parse template %s: %w", path, err)
			}
			var b strings.Builder
			if err := tmpl.Execute(&b, data); err != nil {
				return fmt.Errorf("execute template %s: %w", path, err)
			}
			content = []byte(b.String())
		}
		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
}

// Title converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func Title(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
