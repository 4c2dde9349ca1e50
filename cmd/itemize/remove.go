package main

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the remove command.
func (c *RemoveCmd) Run(deps *Dependencies) error {
	if err := deps.Itemizes.DeleteLink(deps.Ctx, c.Username, c.Slug, c.LinkID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "removed %s\n", c.LinkID)
	return nil
}
