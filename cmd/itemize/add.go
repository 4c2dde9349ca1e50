package main

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	m, err := deps.Metadata.GetMetadata(deps.Ctx, c.URL, false)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	link, err := deps.Itemizes.CreateLink(deps.Ctx, c.Username, c.Slug, m.URL, m.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	title := link.URL
	if link.Metadata != nil && link.Metadata.Title != "" {
		title = link.Metadata.Title
	}
	fmt.Fprintf(deps.Stdout, "added %s  %s\n", link.ID, title)
	return nil
}
