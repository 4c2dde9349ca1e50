package main

import (
	"fmt"
	"os"
	"os/signal"

	itemizehttp "github.com/fwojciec/itemize/http"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := itemizehttp.NewServer()
	server.Addr = c.Addr
	server.Metadata = deps.Metadata
	server.Itemizes = deps.Itemizes

	if err := server.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to listen on %s: %s\n", c.Addr, err)
		return err
	}
	defer server.Close()

	fmt.Fprintf(deps.Stdout, "listening on %s\n", c.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	select {
	case <-sig:
	case <-deps.Ctx.Done():
	}

	fmt.Fprintln(deps.Stdout, "shutting down")
	return nil
}
