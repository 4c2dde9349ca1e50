package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/itemize"
)

// Run executes the fetch command.
func (c *FetchCmd) Run(deps *Dependencies) error {
	m, err := deps.Metadata.GetMetadata(deps.Ctx, c.URL, c.CacheOnly)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", itemize.ErrorMessage(err))
		return err
	}
	if m == nil {
		fmt.Fprintln(deps.Stdout, "not cached")
		return nil
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
