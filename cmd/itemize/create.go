package main

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the create command.
func (c *CreateCmd) Run(deps *Dependencies) error {
	itm := &itemize.Itemize{
		Name:        c.Name,
		Description: c.Description,
		Username:    c.Username,
		Public:      c.Public,
	}
	if err := deps.Itemizes.CreateItemize(deps.Ctx, itm); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "created %s/%s\n", itm.Username, itm.Slug)
	return nil
}
