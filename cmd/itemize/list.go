package main

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	itemizes, err := deps.Itemizes.FindItemizes(deps.Ctx, c.Username, c.Query)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	if len(itemizes) == 0 {
		fmt.Fprintln(deps.Stdout, "No itemizes found. Use 'itemize create' to create one.")
		return nil
	}

	for _, itm := range itemizes {
		visibility := "private"
		if itm.Public {
			visibility = "public"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  (%d links, %s)\n", itm.Slug, itm.Name, itm.Description, len(itm.Links), visibility)
	}

	return nil
}
