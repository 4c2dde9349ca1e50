package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/itemize"
	"github.com/fwojciec/itemize/goquery"
	itemizehttp "github.com/fwojciec/itemize/http"
	"github.com/fwojciec/itemize/metadata"
	"github.com/fwojciec/itemize/rod"
	itemizeslog "github.com/fwojciec/itemize/slog"
	"github.com/fwojciec/itemize/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	MetadataService itemize.MetadataService
	ItemizeService  itemize.ItemizeService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("itemize"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'itemize --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set ITEMIZE_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	imageURL := metadata.ImageURLBuilder(cli.BaseURL)
	store := sqlite.NewMetadataStore(m.DB)
	sitemaps := itemizehttp.NewSitemapService(nil)

	var screenshotter itemize.Screenshotter
	if cli.Screenshots {
		s, err := rod.NewScreenshotter()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer s.Close()
		screenshotter = itemizeslog.NewLoggingScreenshotter(s, logger)
	}

	svc := &metadata.Service{
		Store:         store,
		Parser:        goquery.NewParser(logger),
		Fetcher:       itemizehttp.NewFetcher(),
		Screenshotter: screenshotter,
		Limiter:       metadata.NewDomainLimiter(1.0),
		Cache:         metadata.NewCache(10000),
		ImageURL:      imageURL,
		RefreshAlways: cli.Refresh,
		Concurrency:   cli.Concurrency,
		Logger:        logger,
	}
	if err := svc.Warm(ctx); err != nil {
		return fmt.Errorf("failed to warm metadata cache: %w", err)
	}

	m.MetadataService = itemizeslog.NewLoggingMetadataService(svc, logger)
	m.ItemizeService = sqlite.NewItemizeService(m.DB, imageURL)

	deps.DB = m.DB
	deps.Metadata = m.MetadataService
	deps.Itemizes = m.ItemizeService
	deps.Sitemaps = sitemaps

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("ITEMIZE_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "itemize.db"
	}
	dir := filepath.Join(home, ".itemize")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "itemize.db")
}
