package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/go-rod/rod/lib/proto"
	"github.com/microcosm-cc/bluemonday"
)

// Dumper saves what a tab showed when something went wrong: a PNG
// screenshot and a Markdown rendering of the sanitised DOM.
type Dumper struct {
	dir    string
	policy *bluemonday.Policy
	md     *converter.Converter
	logger *slog.Logger
}

// NewDumper writes dumps under dir, creating it on first use.
func NewDumper(dir string, logger *slog.Logger) *Dumper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dumper{
		dir:    dir,
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger,
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName turns a label such as a URL into a safe file stem.
func fileName(label string) string {
	s := strings.Trim(unsafeName.ReplaceAllString(label, "_"), "_")
	if s == "" {
		s = "dump"
	}
	if len(s) > 120 {
		s = s[len(s)-120:]
	}
	return s
}

// Dump captures the tab. Failures are logged; a dump never fails the
// caller's operation.
func (d *Dumper) Dump(ctx context.Context, t *Tab, label string) {
	png, err := t.Page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		d.logger.Warn("browser: screenshot failed", "label", label, "error", err)
	}
	html, err := t.HTML(ctx)
	if err != nil {
		d.logger.Warn("browser: dump DOM failed", "label", label, "error", err)
	}
	if _, err := d.Write(label, t.URL(), png, html); err != nil {
		d.logger.Warn("browser: dump failed", "label", label, "error", err)
	}
}

// Write stores png and html under label and returns the written paths.
// Empty inputs are skipped.
func (d *Dumper) Write(label, pageURL string, png []byte, html string) ([]string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("browser: dump dir: %w", err)
	}
	stem := filepath.Join(d.dir, fileName(label))
	var written []string

	if len(png) > 0 {
		if err := os.WriteFile(stem+".png", png, 0o644); err != nil {
			return written, fmt.Errorf("browser: write screenshot: %w", err)
		}
		written = append(written, stem+".png")
	}
	if html != "" {
		md, err := d.Markdown(html, pageURL)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(stem+".md", []byte(md), 0o644); err != nil {
			return written, fmt.Errorf("browser: write markdown: %w", err)
		}
		written = append(written, stem+".md")
	}
	d.logger.Info("browser: dump saved", "label", label, "files", written)
	return written, nil
}

// Markdown sanitises html and converts it to Markdown. Relative links are
// resolved against pageURL when it is set.
func (d *Dumper) Markdown(html, pageURL string) (string, error) {
	clean := d.policy.Sanitize(html)
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	md, err := d.md.ConvertString(clean, opts...)
	if err != nil {
		return "", fmt.Errorf("browser: markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
