package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/pubsite"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
	watch      bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pubsite",
	Short: "pubsite - a static blog generator built with Go and templ",
	Long: `pubsite turns a directory of Markdown posts (or a SQLite post store) into
a static site: post pages with previous/next links, a tag index, one page
per tag, a timeline, RSS and a sitemap.

Settings come from site.toml (or --config) and PUBSITE_* environment
variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site into the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()
		report, err := app.Build(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built %d posts, %d tags, %d pages into %s in %s\n",
			report.Posts, report.Tags, report.Pages, report.Output, report.Duration)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve it, with the admin when configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Serve(cmd.Context(), watch)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import a directory of Markdown posts into the SQLite store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()
		n, err := app.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d posts into %s\n", n, app.Config.DatabasePath)
		return nil
	},
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new pubsite project",
	Example: `  pubsite new myblog
  pubsite new notes/garden`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNew(cmd.OutOrStdout(), args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pubsite version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pubsite %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./site.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	serveCmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when content or static files change")

	rootCmd.AddCommand(buildCmd, serveCmd, importCmd, newCmd, versionCmd)
}

func newApp() (*pubsite.App, error) {
	cfg, err := pubsite.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return pubsite.New(cfg, pubsite.WithLogger(logger)), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
