package pipeline

import (
	"context"

	"github.com/hazyhaar/scrapeking/internal/normalize"
	"github.com/hazyhaar/scrapeking/internal/sink"
	"github.com/hazyhaar/scrapeking/lexicon"
)

// Collect gathers the harvested values of every category file into the
// values file and returns how many distinct words it wrote.
func (p *Pipeline) Collect(ctx context.Context) (int, error) {
	var n int
	_, err := p.track(ctx, KindCollect, func(runID string) error {
		words, err := normalize.NewCollector(p.logger).Collect(ctx, p.cfg.Output.Dir, p.cfg.Output.CategoryPrefix)
		if err != nil {
			return err
		}
		if err := lexicon.WriteTermsFile(p.cfg.Output.ValuesFile, words); err != nil {
			return err
		}
		n = len(words)
		p.logger.Info("pipeline: values collected", "file", p.cfg.Output.ValuesFile, "words", n)
		return p.sendTerms(ctx, runID, sink.KindValues, words)
	})
	return n, err
}

// Clean strips ASCII from the values file into the clean file.
func (p *Pipeline) Clean(ctx context.Context) (int, error) {
	var n int
	_, err := p.track(ctx, KindClean, func(string) error {
		var err error
		n, err = normalize.CleanFile(ctx, p.cfg.Output.ValuesFile, p.cfg.Output.CleanFile)
		if err != nil {
			return err
		}
		p.logger.Info("pipeline: values cleaned", "file", p.cfg.Output.CleanFile, "words", n)
		return nil
	})
	return n, err
}

func (p *Pipeline) extractor() (*lexicon.Extractor, lexicon.Corpus, error) {
	d, err := lexicon.LoadDictionary(p.cfg.Lexicon.Dictionary)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("pipeline: dictionary loaded", "file", p.cfg.Lexicon.Dictionary, "terms", d.Len())
	return lexicon.NewExtractor(d), lexicon.Files(p.cfg.Lexicon.Inputs...), nil
}

// Extract writes the untranslated terms of the lexicon inputs, longest
// first, and returns them. Nothing is written when a source is missing.
func (p *Pipeline) Extract(ctx context.Context) ([]string, error) {
	var terms []string
	_, err := p.track(ctx, KindExtract, func(runID string) error {
		ex, corpus, err := p.extractor()
		if err != nil {
			return err
		}
		set, err := ex.Extract(ctx, corpus)
		if err != nil {
			return err
		}
		terms = set.Sorted()
		if err := lexicon.WriteTermsFile(p.cfg.Lexicon.Untranslated, terms); err != nil {
			return err
		}
		p.logger.Info("pipeline: untranslated terms", "file", p.cfg.Lexicon.Untranslated, "terms", len(terms))
		return p.sendTerms(ctx, runID, sink.KindUntranslated, terms)
	})
	if err != nil {
		return nil, err
	}
	return terms, nil
}

// Uncovered writes the input lines that contain no dictionary term.
func (p *Pipeline) Uncovered(ctx context.Context) ([]string, error) {
	var lines []string
	_, err := p.track(ctx, KindUncovered, func(runID string) error {
		ex, corpus, err := p.extractor()
		if err != nil {
			return err
		}
		lines, err = ex.Uncovered(ctx, corpus)
		if err != nil {
			return err
		}
		if err := lexicon.WriteTermsFile(p.cfg.Lexicon.Uncovered, lines); err != nil {
			return err
		}
		p.logger.Info("pipeline: uncovered lines", "file", p.cfg.Lexicon.Uncovered, "lines", len(lines))
		return p.sendTerms(ctx, runID, sink.KindUncovered, lines)
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (p *Pipeline) sendTerms(ctx context.Context, runID, kind string, terms []string) error {
	r := p.router()
	if r.Len() == 0 {
		return nil
	}
	if err := r.SendTerms(ctx, sink.TermList{RunID: runID, Kind: kind, Terms: terms}); err != nil {
		p.logger.Warn("pipeline: deliver terms", "kind", kind, "error", err)
	}
	return nil
}
