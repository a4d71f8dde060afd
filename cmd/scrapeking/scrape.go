package main

import (
	"github.com/spf13/cobra"

	"github.com/hazyhaar/scrapeking/internal/config"
	"github.com/hazyhaar/scrapeking/internal/pipeline"
)

var replayURL string

// browserPipeline loads the credentials and wires a browser session.
func browserPipeline() (*pipeline.Pipeline, func(), error) {
	creds, err := config.LoadCredentials(envFile)
	if err != nil {
		return nil, nil, err
	}
	return newPipeline(pipeline.WithOpener(pipeline.BrowserOpener(cfg, creds, logger)))
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Log in and harvest every detail page into the category files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeAll, err := browserPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		rep, err := p.Scrape(cmd.Context())
		if err != nil {
			return fatal(err)
		}
		return report(cmd, rep)
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <file.html>",
	Short: "Harvest a saved detail page into its category file",
	Long: `Harvest a detail page saved from the browser. The --url flag gives the
address the page was saved from; its /home/<x>/<y> path selects the
category file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeAll, err := newPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		rec, err := p.Replay(cmd.Context(), args[0], replayURL)
		if err != nil {
			return fatal(err)
		}
		return report(cmd, rec)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape, then collect, clean and extract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeAll, err := browserPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		rep, err := p.Run(cmd.Context())
		if err != nil {
			return fatal(err)
		}
		return report(cmd, rep)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayURL, "url", "", "address the page was saved from")
}
