package main

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	urls, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stdout, "No URLs discovered.")
		return nil
	}
	if c.Limit > 0 && len(urls) > c.Limit {
		urls = urls[:c.Limit]
	}

	fmt.Fprintf(deps.Stdout, "discovered %d URLs, extracting metadata\n", len(urls))

	results, err := deps.Metadata.GetMetadataBatch(deps.Ctx, urls)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	var added int
	for _, m := range results {
		link, err := deps.Itemizes.CreateLink(deps.Ctx, c.Username, c.Slug, m.URL, m.ID)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "skipping %s: %s\n", m.URL, itemize.ErrorMessage(err))
			continue
		}
		added++
		fmt.Fprintf(deps.Stdout, "added %s  %s\n", link.ID, m.URL)
	}

	fmt.Fprintf(deps.Stdout, "imported %d of %d links\n", added, len(urls))
	return nil
}
