package pubsite

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/planner"
)

// Content sources.
const (
	SourceFiles  = "files"
	SourceSQLite = "sqlite"
)

// SiteConfig holds all configuration for a pubsite site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD and the footer
	Lang        string // html lang attribute (default "en")

	Source        string // "files" or "sqlite" (default "files")
	ContentDir    string // Markdown root for the files source (default "content")
	DatabasePath  string // SQLite path for the sqlite source (default "data/blog.db")
	OutputDir     string // Build output (default "public")
	StaticDir     string // Copied verbatim over the output (default "static")
	MaxPosts      int    // Upper bound on posts fetched per build (default 1000)
	PageSize      int    // Posts on the home page and per infinite-scroll chunk (default 10)
	ExcerptLength int    // Runes kept in generated excerpts (default 140)
	IncludeDrafts bool   // Build drafts and future-dated posts
	Workers       int    // Pages rendered in parallel (default 8)

	Addr          string        // Preview server listen address (default ":3000")
	AdminPassword string        // Enables the admin when set
	SessionSecret string        // Session encryption secret, required with AdminPassword
	CookieSecure  bool          // Set true for HTTPS
	WatchDebounce time.Duration // Delay before a watch-triggered rebuild (default 300ms)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Source == "" {
		c.Source = SourceFiles
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.MaxPosts == 0 {
		c.MaxPosts = 1000
	}
	if c.PageSize == 0 {
		c.PageSize = 10
	}
	if c.ExcerptLength == 0 {
		c.ExcerptLength = markdown.DefaultExcerptLength
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.WatchDebounce == 0 {
		c.WatchDebounce = 300 * time.Millisecond
	}
}

func (c *SiteConfig) validate() error {
	switch c.Source {
	case SourceFiles, SourceSQLite:
	default:
		return fmt.Errorf("pubsite: unknown content source %q", c.Source)
	}
	switch out := filepath.Clean(c.OutputDir); {
	case out == "." || out == string(filepath.Separator):
		return fmt.Errorf("pubsite: refusing to build into %q", c.OutputDir)
	case c.Source == SourceFiles && out == filepath.Clean(c.ContentDir):
		return errors.New("pubsite: OutputDir must differ from ContentDir")
	case out == filepath.Clean(c.StaticDir):
		return errors.New("pubsite: OutputDir must differ from StaticDir")
	}
	if c.AdminPassword != "" && c.SessionSecret == "" {
		return errors.New("pubsite: SessionSecret is required when AdminPassword is set")
	}
	return nil
}

// LoadConfig reads site settings from path (any format viper understands;
// "site.toml" in the working directory when path is empty) and from
// PUBSITE_* environment variables. A missing default file is not an error.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("site")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("pubsite")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("name", "Blog")
	v.SetDefault("url", "http://localhost:3000")
	v.SetDefault("source", SourceFiles)
	v.SetDefault("content_dir", "content")
	v.SetDefault("database_path", "data/blog.db")
	v.SetDefault("output_dir", "public")
	v.SetDefault("static_dir", "static")
	v.SetDefault("max_posts", 1000)
	v.SetDefault("page_size", 10)
	v.SetDefault("excerpt_length", markdown.DefaultExcerptLength)
	v.SetDefault("workers", 8)
	v.SetDefault("addr", ":3000")
	v.SetDefault("watch_debounce", "300ms")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return SiteConfig{}, fmt.Errorf("pubsite: read config: %w", err)
		}
	}

	cfg := SiteConfig{
		Name:          v.GetString("name"),
		URL:           v.GetString("url"),
		Description:   v.GetString("description"),
		Author:        v.GetString("author"),
		Lang:          v.GetString("lang"),
		Source:        v.GetString("source"),
		ContentDir:    v.GetString("content_dir"),
		DatabasePath:  v.GetString("database_path"),
		OutputDir:     v.GetString("output_dir"),
		StaticDir:     v.GetString("static_dir"),
		MaxPosts:      v.GetInt("max_posts"),
		PageSize:      v.GetInt("page_size"),
		ExcerptLength: v.GetInt("excerpt_length"),
		IncludeDrafts: v.GetBool("include_drafts"),
		Workers:       v.GetInt("workers"),
		Addr:          v.GetString("addr"),
		AdminPassword: v.GetString("admin_password"),
		SessionSecret: v.GetString("session_secret"),
		CookieSecure:  v.GetBool("cookie_secure"),
		WatchDebounce: v.GetDuration("watch_debounce"),
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used for build and server output.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithSource overrides the content source chosen by SiteConfig.Source.
func WithSource(q planner.Querier) Option {
	return func(a *App) {
		a.Source = q
	}
}

// WithStore attaches an already opened post store.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
