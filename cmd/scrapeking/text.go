package main

import (
	"github.com/spf13/cobra"
)

var (
	dictionaryPath string
	inputPaths     []string
	outputPath     string
)

// lexiconFlags registers the path overrides of the dictionary stages.
func lexiconFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dictionaryPath, "dictionary", "", "JSON dictionary whose keys are the known terms")
	cmd.Flags().StringSliceVar(&inputPaths, "input", nil, "input text files (repeatable)")
	cmd.Flags().StringVarP(&outputPath, "out", "O", "", "output file")
}

func applyLexiconFlags(out *string) {
	if dictionaryPath != "" {
		cfg.Lexicon.Dictionary = dictionaryPath
	}
	if len(inputPaths) > 0 {
		cfg.Lexicon.Inputs = inputPaths
	}
	if outputPath != "" {
		*out = outputPath
	}
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Gather the harvested values of the category files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputPath != "" {
			cfg.Output.ValuesFile = outputPath
		}
		p, closeAll, err := newPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		n, err := p.Collect(cmd.Context())
		if err != nil {
			return fatal(err)
		}
		return report(cmd, map[string]any{"file": cfg.Output.ValuesFile, "words": n})
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Strip ASCII from the values file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputPath != "" {
			cfg.Output.CleanFile = outputPath
		}
		p, closeAll, err := newPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		n, err := p.Clean(cmd.Context())
		if err != nil {
			return fatal(err)
		}
		return report(cmd, map[string]any{"file": cfg.Output.CleanFile, "words": n})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "List the characters no dictionary term covers, longest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLexiconFlags(&cfg.Lexicon.Untranslated)
		p, closeAll, err := newPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		terms, err := p.Extract(cmd.Context())
		if err != nil {
			return fatal(err)
		}
		return report(cmd, map[string]any{"file": cfg.Lexicon.Untranslated, "terms": len(terms)})
	},
}

var uncoveredCmd = &cobra.Command{
	Use:   "uncovered",
	Short: "List the input lines that contain no dictionary term",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLexiconFlags(&cfg.Lexicon.Uncovered)
		p, closeAll, err := newPipeline()
		if err != nil {
			return fatal(err)
		}
		defer closeAll()
		lines, err := p.Uncovered(cmd.Context())
		if err != nil {
			return fatal(err)
		}
		return report(cmd, map[string]any{"file": cfg.Lexicon.Uncovered, "lines": len(lines)})
	},
}

func init() {
	collectCmd.Flags().StringVarP(&outputPath, "out", "O", "", "values file")
	cleanCmd.Flags().StringVarP(&outputPath, "out", "O", "", "clean file")
	lexiconFlags(extractCmd)
	lexiconFlags(uncoveredCmd)
}
