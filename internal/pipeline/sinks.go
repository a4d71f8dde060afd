package pipeline

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/scrapeking/internal/config"
	"github.com/hazyhaar/scrapeking/internal/sink"
)

// Sinks builds the sinks listed in the configuration. Stdout sinks write
// to stdout.
func Sinks(cfgs []config.SinkConfig, stdout io.Writer, logger *slog.Logger) []sink.Sink {
	if logger == nil {
		logger = slog.Default()
	}
	var out []sink.Sink
	for _, c := range cfgs {
		switch c.Type {
		case "stdout":
			out = append(out, sink.NewStdout(stdout))
		case "webhook":
			out = append(out, sink.NewWebhook(c.URL,
				sink.WithWebhookRetries(c.Retries),
				sink.WithWebhookLogger(logger),
			))
		default:
			logger.Warn("pipeline: unknown sink type", "type", c.Type)
		}
	}
	return out
}
