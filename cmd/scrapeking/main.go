// Command scrapeking harvests the collapsible trees of the pokeking site
// and extracts the terms the translation dictionary does not cover yet.
//
// Usage:
//
//	scrapeking run -config scrapeking.yaml   # scrape, collect, clean, extract
//	scrapeking replay saved.html -url URL    # harvest a saved detail page
//	scrapeking extract                       # untranslated terms only
//	scrapeking serve -db scrapeking.db       # browse stored runs
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
