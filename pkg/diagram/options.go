package diagram

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures a build.
type Options struct {
	// StrictAppTypes rejects records carrying an unrecognized app_type.
	// Otherwise such apps are logged and skipped, along with their
	// connections.
	StrictAppTypes bool

	// Logger receives skip and dangling-endpoint diagnostics. Nil discards.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}
