package pubsite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubsite/planner"
	"github.com/eringen/pubsite/views"
)

const (
	homeRoute     = "/"
	timelineRoute = "/timeline/"
	pageDataDir   = "page-data"
	assetsDir     = "public"
	notFoundFile  = "404.html"
	feedFile      = "feed.xml"
	sitemapFile   = "sitemap.xml"
)

// reservedRoots are the top-level names the builder writes itself. A post
// slug starting with one of them would collide with a generated page.
var reservedRoots = map[string]bool{
	"tags":       true,
	"timeline":   true,
	pageDataDir:  true,
	assetsDir:    true,
	notFoundFile: true,
	feedFile:     true,
	sitemapFile:  true,
}

// ReservedSlug reports whether slug would land on a generated page.
func ReservedSlug(slug string) bool {
	first, _, _ := strings.Cut(strings.Trim(slug, "/"), "/")
	return reservedRoots[strings.ToLower(first)]
}

// Build fetches every post from the configured source, plans the page set
// and writes it to OutputDir. Pages are rendered into a staging directory
// that replaces OutputDir only when everything succeeded; on any error the
// previous output is left untouched.
func (a *App) Build(ctx context.Context) (Report, error) {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	if err := a.open(); err != nil {
		return Report{}, err
	}
	start := time.Now()
	id := uuid.NewString()
	log := a.Logger.With(zap.String("build", id))

	directives, records, err := planner.PlanFrom(ctx, a.Source, a.Config.MaxPosts)
	if err != nil {
		return Report{}, fmt.Errorf("pubsite: build: %w", err)
	}
	log.Debug("planned", zap.Int("records", len(records)), zap.Int("directives", len(directives)))

	out := filepath.Clean(a.Config.OutputDir)
	stage := out + ".tmp-" + id
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return Report{}, fmt.Errorf("pubsite: build: %w", err)
	}
	swapped := false
	defer func() {
		if !swapped {
			if err := os.RemoveAll(stage); err != nil {
				log.Warn("remove staging dir", zap.String("dir", stage), zap.Error(err))
			}
		}
	}()

	b := &builder{
		root:     stage,
		site:     a.viewConfig(),
		pageSize: a.Config.PageSize,
		workers:  a.Config.Workers,
		files:    newFileSet(),
		log:      log,
	}
	report, err := b.run(ctx, directives, records)
	if err != nil {
		return Report{}, fmt.Errorf("pubsite: build: %w", err)
	}
	if dir := a.Config.StaticDir; dir != "" {
		if err := copyStatic(stage, dir); err != nil {
			return Report{}, fmt.Errorf("pubsite: build: copy static: %w", err)
		}
	}
	if err := swapDir(stage, out, id); err != nil {
		return Report{}, fmt.Errorf("pubsite: build: swap output: %w", err)
	}
	swapped = true

	report.ID = id
	report.Output = out
	report.Duration = time.Since(start)
	a.lastReport = report
	log.Info("build complete",
		zap.String("output", out),
		zap.Int("posts", report.Posts),
		zap.Int("tags", report.Tags),
		zap.Int("pages", report.Pages),
		zap.Int("images", report.Images),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}

func copyStatic(dst, dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return copyTree(dst, os.DirFS(dir))
}

// builder writes one build's files below root.
type builder struct {
	root     string
	site     views.SiteConfig
	pageSize int
	workers  int
	files    *fileSet
	log      *zap.Logger
}

// job is one output file and the function producing its bytes.
type job struct {
	route  string
	file   string
	page   bool
	images string // bundle directory copied next to the page
	write  func(ctx context.Context, w io.Writer) error
}

func (b *builder) run(ctx context.Context, directives []planner.PageDirective, records []planner.ContentRecord) (Report, error) {
	var report Report
	var jobs []job

	for _, d := range directives {
		cmp, err := directiveComponent(b.site, d)
		if err != nil {
			return report, err
		}
		j, err := b.pageJob(d.Route, cmp)
		if err != nil {
			return report, err
		}
		switch d.Kind {
		case planner.Post:
			report.Posts++
			j.images = d.Context.(planner.PostContext).Record.SourceDir
		case planner.SingleTag:
			report.Tags++
		}
		jobs = append(jobs, j)
	}

	listing, err := b.listingJobs(records, directives)
	if err != nil {
		return report, err
	}
	jobs = append(jobs, listing...)

	for _, j := range jobs {
		if j.page {
			report.Pages++
		}
	}

	imageCounts := make([]int, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))
	for i, j := range jobs {
		i, j := i, j // per-iteration copies (go directive is below 1.22)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := j.write(ctx, &buf); err != nil {
				return fmt.Errorf("render %s: %w", j.route, err)
			}
			if err := writeFile(j.file, buf.Bytes()); err != nil {
				return err
			}
			if j.images != "" {
				n, err := copyBundle(j.images, filepath.Dir(j.file))
				if err != nil {
					return fmt.Errorf("bundle %s: %w", j.route, err)
				}
				imageCounts[i] = n
			}
			b.log.Debug("wrote", zap.String("route", j.route))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	for _, n := range imageCounts {
		report.Images += n
	}
	if err := copyTree(filepath.Join(b.root, assetsDir), mustSub(EmbeddedAssets, "embedded")); err != nil {
		return report, fmt.Errorf("copy assets: %w", err)
	}
	return report, nil
}

func directiveComponent(cfg views.SiteConfig, d planner.PageDirective) (templ.Component, error) {
	switch c := d.Context.(type) {
	case planner.AllTagsContext:
		return views.AllTags(cfg, c), nil
	case planner.SingleTagContext:
		return views.SingleTag(cfg, c), nil
	case planner.PostContext:
		return views.Post(cfg, c), nil
	default:
		return nil, fmt.Errorf("no template for %s page %q", d.Kind, d.Route)
	}
}

func (b *builder) pageJob(route string, cmp templ.Component) (job, error) {
	file, err := pageFile(b.root, route)
	if err != nil {
		return job{}, err
	}
	if err := b.files.claim(file, route); err != nil {
		return job{}, err
	}
	return job{route: route, file: file, page: true, write: cmp.Render}, nil
}

func (b *builder) assetJob(name string, page bool, write func(ctx context.Context, w io.Writer) error) (job, error) {
	file, err := assetFile(b.root, name)
	if err != nil {
		return job{}, err
	}
	if err := b.files.claim(file, "/"+name); err != nil {
		return job{}, err
	}
	return job{route: "/" + name, file: file, page: page, write: write}, nil
}

// listingJobs covers the pages that are not planner directives: the home
// feed with its JSON chunks, the timeline, 404, the feed and the sitemap.
func (b *builder) listingJobs(records []planner.ContentRecord, directives []planner.PageDirective) ([]job, error) {
	size := max(b.pageSize, 1)
	chunks := chunkRecords(records, size)

	var first []planner.ContentRecord
	if len(chunks) > 0 {
		first = chunks[0]
	}
	next := ""
	if len(chunks) > 1 {
		next = chunkURL(1)
	}

	var jobs []job
	add := func(j job, err error) error {
		if err != nil {
			return err
		}
		jobs = append(jobs, j)
		return nil
	}
	if err := add(b.pageJob(homeRoute, views.Home(b.site, first, next))); err != nil {
		return nil, err
	}
	for n := 1; n < len(chunks); n++ {
		chunk := newFeedChunk(chunks[n], n+1 < len(chunks), n+1)
		if err := add(b.assetJob(pageDataDir+"/"+strconv.Itoa(n)+".json", false, func(_ context.Context, w io.Writer) error {
			return json.NewEncoder(w).Encode(chunk)
		})); err != nil {
			return nil, err
		}
	}
	if err := add(b.pageJob(timelineRoute, views.Timeline(b.site, records))); err != nil {
		return nil, err
	}
	if err := add(b.assetJob(notFoundFile, true, views.NotFound(b.site).Render)); err != nil {
		return nil, err
	}
	if err := add(b.assetJob(feedFile, false, func(_ context.Context, w io.Writer) error {
		return writeFeed(w, b.site, records)
	})); err != nil {
		return nil, err
	}
	if err := add(b.assetJob(sitemapFile, false, func(_ context.Context, w io.Writer) error {
		return writeSitemap(w, b.site, directives)
	})); err != nil {
		return nil, err
	}
	return jobs, nil
}

// feedChunk is one infinite-scroll page as fetched by site.js.
type feedChunk struct {
	Posts []feedPost `json:"posts"`
	Next  string     `json:"next"`
}

type feedPost struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags,omitempty"`
}

func newFeedChunk(records []planner.ContentRecord, more bool, next int) feedChunk {
	c := feedChunk{Posts: make([]feedPost, 0, len(records))}
	for _, r := range records {
		c.Posts = append(c.Posts, feedPost{
			Path:    r.Path,
			Title:   r.Title,
			Date:    r.DateText,
			Summary: r.Summary(),
			Tags:    r.Tags,
		})
	}
	if more {
		c.Next = chunkURL(next)
	}
	return c
}

func chunkURL(n int) string {
	return "/" + pageDataDir + "/" + strconv.Itoa(n) + ".json"
}

func chunkRecords(records []planner.ContentRecord, size int) [][]planner.ContentRecord {
	var out [][]planner.ContentRecord
	for start := 0; start < len(records); start += size {
		out = append(out, records[start:min(start+size, len(records))])
	}
	return out
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
