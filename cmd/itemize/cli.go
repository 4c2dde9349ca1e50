package main

import (
	"context"
	"io"

	"github.com/fwojciec/itemize"
	"github.com/fwojciec/itemize/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Metadata itemize.MetadataService
	Itemizes itemize.ItemizeService
	Sitemaps itemize.SitemapService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Serve  ServeCmd  `cmd:"" help:"Run the itemize API server"`
	Fetch  FetchCmd  `cmd:"" help:"Fetch and print metadata for a URL"`
	Create CreateCmd `cmd:"" help:"Create an itemize"`
	List   ListCmd   `cmd:"" help:"List a user's itemizes"`
	Show   ShowCmd   `cmd:"" help:"Show an itemize with its links"`
	Add    AddCmd    `cmd:"" help:"Add a link to an itemize"`
	Remove RemoveCmd `cmd:"" help:"Remove a link from an itemize"`
	Import ImportCmd `cmd:"" help:"Import links from a site's sitemap"`

	// Global flags shared by every command.
	Screenshots bool   `help:"Capture page screenshots for imageless metadata (requires Chrome)"`
	Refresh     bool   `help:"Re-scrape metadata on every request instead of using the cache"`
	Concurrency int    `short:"c" default:"10" help:"Concurrent extraction limit"`
	BaseURL     string `env:"ITEMIZE_BASE_URL" default:"http://localhost:8000" help:"Base URL for served image links"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8000" help:"Listen address"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	URL       string `arg:"" help:"Page URL"`
	CacheOnly bool   `help:"Only consult the cache; never fetch the page"`
}

// CreateCmd is the "create" subcommand.
type CreateCmd struct {
	Username    string `arg:"" help:"Owner username"`
	Name        string `arg:"" help:"Itemize name"`
	Description string `short:"d" help:"Itemize description"`
	Public      bool   `help:"Make the itemize public"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Username string `arg:"" help:"Owner username"`
	Query    string `short:"q" help:"Filter itemizes by text"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	Username string `arg:"" help:"Owner username"`
	Slug     string `arg:"" help:"Itemize slug"`
	Query    string `short:"q" help:"Filter links by text"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Username string `arg:"" help:"Owner username"`
	Slug     string `arg:"" help:"Itemize slug"`
	URL      string `arg:"" help:"Link URL"`
}

// RemoveCmd is the "remove" subcommand.
type RemoveCmd struct {
	Username string `arg:"" help:"Owner username"`
	Slug     string `arg:"" help:"Itemize slug"`
	LinkID   string `arg:"" help:"Link ID"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	Username string `arg:"" help:"Owner username"`
	Slug     string `arg:"" help:"Itemize slug"`
	URL      string `arg:"" help:"Site URL whose sitemap to import"`
	Limit    int    `short:"n" default:"50" help:"Maximum number of links to import"`
}
