package main

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	itm, err := deps.Itemizes.FindItemize(deps.Ctx, c.Username, c.Slug, c.Query)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s (%s/%s)\n", itm.Name, itm.Username, itm.Slug)
	if itm.Description != "" {
		fmt.Fprintln(deps.Stdout, itm.Description)
	}

	if len(itm.Links) == 0 {
		fmt.Fprintln(deps.Stdout, "No links. Use 'itemize add' to add one.")
		return nil
	}

	for _, l := range itm.Links {
		title := l.URL
		if l.Metadata != nil && l.Metadata.Title != "" {
			title = l.Metadata.Title
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", l.ID, title, l.URL)
	}

	return nil
}
