// Package pipeline runs the rows → diagram → viewer URL pipeline.
//
// The CLI, the batch driver and the HTTP server all go through [Runner] so
// that grouping, building, encoding and caching behave the same everywhere.
//
// # Stages
//
//  1. Group: merge flat rows into interface records
//  2. Build: lay the records out as a draw.io document
//  3. Encode: serialize the document and turn it into a viewer URL
//
// Results are cached by the hash of the canonical input rows and the build
// options, so re-running a batch over unchanged inputs is cheap.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, rows, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.URL)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/interflow/pkg/diagram"
	"github.com/matzehuels/interflow/pkg/model"
	"github.com/matzehuels/interflow/pkg/preview"
)

// DefaultPreviewFormat is the preview format used when none is given.
const DefaultPreviewFormat = preview.FormatSVG

// Options configures a pipeline run.
type Options struct {
	// StrictAppTypes rejects unknown app_type values instead of logging
	// and skipping them.
	StrictAppTypes bool `json:"strict_app_types,omitempty"`

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// PreviewFormat selects the Runner.Preview output.
	PreviewFormat string `json:"preview_format,omitempty"`

	Logger *log.Logger `json:"-"`
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.PreviewFormat == "" {
		o.PreviewFormat = DefaultPreviewFormat
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForPreview applies defaults and checks the preview format.
func (o *Options) ValidateForPreview() error {
	o.SetDefaults()
	return ValidatePreviewFormat(o.PreviewFormat)
}

// ValidatePreviewFormat checks that a preview format is supported.
func ValidatePreviewFormat(format string) error {
	if !preview.ValidFormats[format] {
		return fmt.Errorf("invalid preview format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

func (o Options) diagramOptions() diagram.Options {
	return diagram.Options{StrictAppTypes: o.StrictAppTypes, Logger: o.Logger}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Records are the grouped interface records.
	Records []model.InterfaceRecord

	// Document is the built diagram. On a cache hit it is parsed back from
	// the cached XML with the statistics of the original build.
	Document *diagram.Document

	// XML is the serialized document.
	XML []byte

	// Payload is the encoded URL fragment and URL the full viewer link.
	Payload string
	URL     string

	// RowsHash is the content hash of the canonical input rows.
	RowsHash string

	Stats    Stats
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Rows       int
	Apps       int
	Cells      int
	Skipped    int
	BuildTime  time.Duration
	EncodeTime time.Duration
}
