package pubsite

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/views"
)

// adminEnabled reports whether the admin routes are mounted.
func (a *App) adminEnabled() bool {
	return a.Config.AdminPassword != ""
}

// canEdit reports whether posts can be edited, which needs the SQLite store.
func (a *App) canEdit() bool {
	return a.Store != nil && a.Config.Source == SourceSQLite
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.viewConfig(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminPost(c echo.Context) error {
	if !IsAdmin(c) || !a.canEdit() {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	slug := adminSlug(c)
	if slug == "new" {
		return Render(c, views.AdminForm(a.viewConfig(), views.BlogPost{
			Date:      time.Now().Format(dateLayout),
			Published: true,
		}, CsrfToken(c)))
	}
	post, err := a.Store.GetPostAny(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	return Render(c, views.AdminForm(a.viewConfig(), post, CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		a.loginLimiter.Forget(ip)
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("failed admin login", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.viewConfig(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !IsAdmin(c) || !a.canEdit() {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := SlugifyPath(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" || slug == "new" {
		return redirectMsg(c, "Slug is required. Add a title or slug.")
	}
	if ReservedSlug(slug) {
		return redirectMsg(c, "Slug "+slug+" is reserved for generated pages.")
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return redirectMsg(c, "Invalid date format. Use YYYY-MM-DD.")
	}
	tags, err := content.CleanTags(splitTags(c.FormValue("tags")))
	if err != nil {
		return redirectMsg(c, "Invalid tag: "+err.Error())
	}
	post := views.BlogPost{
		Slug:        slug,
		Title:       title,
		Date:        date,
		Tags:        tags,
		Description: strings.TrimSpace(c.FormValue("description")),
		Content:     c.FormValue("content"),
		Published:   c.FormValue("published") != "",
	}
	if err := a.Store.SavePost(c.Request().Context(), post); err != nil {
		return err
	}
	return a.rebuildAndRedirect(c, "saved")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) || !a.canEdit() {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Store.DeletePost(c.Request().Context(), adminSlug(c)); err != nil {
		return err
	}
	return a.rebuildAndRedirect(c, "deleted")
}

func (a *App) handleAdminRebuild(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.rebuildAndRedirect(c, "rebuilt")
}

// rebuildAndRedirect rebuilds the site after a change and reports the outcome
// on the dashboard.
func (a *App) rebuildAndRedirect(c echo.Context, done string) error {
	report, err := a.Build(c.Request().Context())
	if err != nil {
		a.Logger.Error("rebuild", zap.Error(err))
		return redirectMsg(c, done+", but the rebuild failed: "+err.Error())
	}
	return redirectMsg(c, done+" ("+report.Duration.Round(time.Millisecond).String()+")")
}

// adminSlug reads the post slug from a wildcard route. Imported slugs may
// contain slashes.
func adminSlug(c echo.Context) string {
	slug, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		slug = c.Param("*")
	}
	return strings.Trim(slug, "/")
}

func redirectMsg(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	if a.canEdit() {
		posts, err := a.Store.ListAllPosts(ctx)
		if err != nil {
			return err
		}
		return Render(c, views.AdminDashboard(a.viewConfig(), posts, msg, CsrfToken(c), true))
	}
	records, err := a.Source.Query(ctx, a.Config.MaxPosts)
	if err != nil {
		return err
	}
	posts := make([]views.BlogPost, 0, len(records))
	for _, r := range records {
		posts = append(posts, views.BlogPost{
			Title:     r.Title,
			Date:      r.DateText,
			Tags:      r.Tags,
			Slug:      strings.Trim(r.Path, "/"),
			Published: true,
		})
	}
	return Render(c, views.AdminDashboard(a.viewConfig(), posts, msg, CsrfToken(c), false))
}
