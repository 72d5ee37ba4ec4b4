package pubsite

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/NYTimes/gziphandler"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) setupRoutes() {
	e := a.Echo

	if a.adminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/rebuild/", a.handleAdminRebuild)
		e.GET("/admin/post/*", a.handleAdminPost)
		e.POST("/admin/save/", a.handleAdminSave)
		e.POST("/admin/delete/*", a.handleAdminDelete)
	}

	e.GET("/*", a.handleStatic())
	e.HEAD("/*", a.handleStatic())
}

type staticFileKey struct{}

// staticFile is the file a request resolved to inside the output directory.
type staticFile struct {
	name string
	info fs.FileInfo
	file *os.File
}

// handleStatic serves the built site. Directories serve their index.html
// without a redirect, so "/tags/c%23" works as linked. Anything else ends up
// in the error handler as a 404.
func (a *App) handleStatic() echo.HandlerFunc {
	files := gziphandler.GzipHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := r.Context().Value(staticFileKey{}).(*staticFile)
		http.ServeContent(w, r, f.name, f.info.ModTime(), f.file)
	}))
	return func(c echo.Context) error {
		f, err := a.openStatic(c.Request().URL.Path)
		if err != nil {
			return echo.ErrNotFound
		}
		defer f.file.Close()
		req := c.Request()
		files.ServeHTTP(c.Response(), req.WithContext(context.WithValue(req.Context(), staticFileKey{}, f)))
		return nil
	}
}

func (a *App) openStatic(urlPath string) (*staticFile, error) {
	name := path.Clean("/" + urlPath)
	file := filepath.Join(a.Config.OutputDir, filepath.FromSlash(name))
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		name = path.Join(name, "index.html")
		file = filepath.Join(file, "index.html")
		if info, err = os.Stat(file); err != nil {
			return nil, err
		}
	}
	if !info.Mode().IsRegular() {
		return nil, fs.ErrNotExist
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	return &staticFile{name: name, info: info, file: f}, nil
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		page, readErr := os.ReadFile(filepath.Join(a.Config.OutputDir, "404.html"))
		if readErr != nil {
			_ = c.String(http.StatusNotFound, "Not found")
			return
		}
		_ = c.HTMLBlob(http.StatusNotFound, page)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		_ = c.String(code, http.StatusText(code))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
