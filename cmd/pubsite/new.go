package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/eringen/pubsite/scaffold"
)

func runNew(out io.Writer, name string) error {
	dirName := filepath.Base(filepath.Clean(name))
	data := scaffold.Data{
		ProjectName: dirName,
		SiteName:    scaffold.Title(dirName),
		Date:        time.Now().Format("2006-01-02"),
	}

	fmt.Fprintf(out, "Creating new pubsite project: %s\n\n", name)
	if err := scaffold.Write(name, data, out); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", name)
	fmt.Fprintln(out, "  pubsite serve --watch")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Edit site.toml to name your site and content/ to write posts.")
	return nil
}
