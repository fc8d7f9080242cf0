// Package cli implements the interflow command-line interface.
//
// This package provides commands for turning interface inventory rows into
// draw.io wiring diagrams, sharing them as viewer links, and serving the
// same pipeline over HTTP. The CLI is built using cobra and logs through
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - url: Build a diagram and print its diagrams.net viewer link
//   - xml: Build a diagram and write the mxfile XML
//   - decode: Turn a payload or viewer link back into XML
//   - preview: Render a DOT or SVG preview of a diagram
//   - batch: Process every rows file in a folder or S3 prefix
//   - serve: Run the HTTP API
//   - cache: Inspect or clear the result cache
//   - completion: Generate shell completion scripts
//
// # Configuration
//
// Settings come from defaults, then the TOML file named by --config (or
// $XDG_CONFIG_HOME/interflow/config.toml), then .env and INTERFLOW_*
// environment variables, then command flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Log lines
// carry "15:04:05.00" timestamps and go to stderr, leaving stdout for
// command output.
//
// # Example
//
//	import "github.com/matzehuels/interflow/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
// It is created at the start of an operation and reports once via done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress starts timing an operation logged to l.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Processed 12 files (1.234s)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
