package pubsite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/planner"
	"github.com/eringen/pubsite/views"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// dateLayout is the storage format of post dates.
const dateLayout = "2006-01-02"

// Store wraps a SQLite database holding blog posts. It doubles as a content
// source for builds.
type Store struct {
	db *sql.DB

	ExcerptLength int
	// IncludeFuture makes Query return posts dated after today.
	IncludeFuture bool
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the preview server read while the admin writes; the busy
	// timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, ExcerptLength: markdown.DefaultExcerptLength}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS posts_date ON posts (date DESC, slug);
`)
	if err != nil {
		return err
	}
	// Databases created before drafts existed lack the published column.
	if _, err := s.db.Exec(`ALTER TABLE posts ADD COLUMN published INTEGER NOT NULL DEFAULT 1;`); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return nil
		}
		return err
	}
	return nil
}

const postColumns = `slug, title, date, tags, summary, content, published`

func scanPost(scan func(dest ...any) error) (views.BlogPost, error) {
	var slug, title, date, tags, summary, body string
	var published int
	if err := scan(&slug, &title, &date, &tags, &summary, &body, &published); err != nil {
		return views.BlogPost{}, err
	}
	return views.BlogPost{
		Slug:        slug,
		Title:       title,
		Date:        date,
		Tags:        ParseTags(tags),
		Description: summary,
		Content:     body,
		Published:   published == 1,
	}, nil
}

func (s *Store) listPosts(ctx context.Context, query string, args ...any) ([]views.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []views.BlogPost
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Query returns up to limit published posts as content records, newest
// first. It makes the store usable as a build source.
func (s *Store) Query(ctx context.Context, limit int) ([]planner.ContentRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + postColumns + ` FROM posts WHERE published = 1`
	args := []any{}
	if !s.IncludeFuture {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		query += ` AND date <= ?`
		args = append(args, now().Format(dateLayout))
	}
	posts, err := s.listPosts(ctx, query+` ORDER BY date DESC, slug ASC LIMIT ?`, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("store: query posts: %w", err)
	}
	records := make([]planner.ContentRecord, 0, len(posts))
	for _, p := range posts {
		r, err := s.record(p)
		if err != nil {
			return nil, fmt.Errorf("store: post %q: %w", p.Slug, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *Store) record(p views.BlogPost) (planner.ContentRecord, error) {
	tags, err := content.CleanTags(p.Tags)
	if err != nil {
		return planner.ContentRecord{}, err
	}
	var date time.Time
	if p.Date != "" {
		if date, err = time.Parse(dateLayout, p.Date); err != nil {
			return planner.ContentRecord{}, err
		}
	}
	title := p.Title
	if title == "" {
		title = p.Slug
	}
	return planner.ContentRecord{
		Path:        content.RoutePath(p.Slug),
		Tags:        tags,
		Title:       title,
		Description: p.Description,
		Excerpt:     markdown.Excerpt(p.Content, s.ExcerptLength),
		Date:        date,
		DateText:    content.FormatDate(date),
		Body:        p.Content,
	}, nil
}

// GetPostAny returns a post by slug regardless of published status (for admin).
func (s *Store) GetPostAny(ctx context.Context, slug string) (views.BlogPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row.Scan)
}

// ListAllPosts returns every post (published and drafts) ordered by date descending.
func (s *Store) ListAllPosts(ctx context.Context) ([]views.BlogPost, error) {
	return s.listPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date DESC, slug ASC`)
}

// SavePost upserts a blog post. Tags are normalized to lowercase.
func (s *Store) SavePost(ctx context.Context, p views.BlogPost) error {
	if p.Slug == "" {
		return errors.New("store: slug is required")
	}
	normalizedTags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalizedTags = append(normalizedTags, t)
		}
	}
	tagString := "," + strings.Join(normalizedTags, ",") + ","
	published := 0
	if p.Published {
		published = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Date, tagString, p.Description, p.Content, published)
	return err
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
