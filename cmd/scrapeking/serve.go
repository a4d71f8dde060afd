package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/scrapeking/internal/review"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored runs, pages and term lists over HTTP",
	Long: `Serve the runs recorded in the database read-only.

Routes:
  GET /healthz
  GET /runs?limit=N
  GET /runs/{id}
  GET /runs/{id}/pages[?format=txt]
  GET /runs/{id}/terms[?kind=untranslated|uncovered|values][&format=txt]`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Path == "" {
			return fatal(errors.New("scrapeking: serve needs a database (--db or store.path)"))
		}
		st, err := openStore()
		if err != nil {
			return fatal(err)
		}
		defer st.Close()

		addr := cfg.Review.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return fatal(review.New(st, review.WithLogger(logger)).ListenAndServe(cmd.Context(), addr))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides review.addr)")
}
