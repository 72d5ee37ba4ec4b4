package pubsite

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes an admin page as an HTTP 200 HTML response.
func Render(c echo.Context, page templ.Component) error {
	return RenderStatus(c, http.StatusOK, page)
}

// RenderStatus renders page into a buffer before anything is sent, so a
// template failure reaches the error handler instead of a half-written body.
func RenderStatus(c echo.Context, code int, page templ.Component) error {
	var buf bytes.Buffer
	if err := page.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}
