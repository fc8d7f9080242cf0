// Package batch turns a folder of row files into viewer URLs.
//
// Each run lists the *.json files at the root of a source store and handles
// them one at a time:
//
//   - a file whose backup/<name> copy holds the same JSON is a duplicate and
//     is deleted
//   - a file that is not valid row data is moved to error/<name>
//   - any other file is run through the pipeline, recorded in the summary
//     sheet and moved to backup/<name>
//
// The summary sheet is written once at the end of the run.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/interflow/pkg/errors"
	"github.com/matzehuels/interflow/pkg/model"
	"github.com/matzehuels/interflow/pkg/observability"
	"github.com/matzehuels/interflow/pkg/pipeline"
	"github.com/matzehuels/interflow/pkg/sheet"
	"github.com/matzehuels/interflow/pkg/storage"
)

// Locations relative to the source root.
const (
	BackupDir = "backup"
	ErrorDir  = "error"
)

// DefaultSheetName is the summary file written when none is configured.
const DefaultSheetName = "interface_urls.xlsx"

// Driver processes one source store.
type Driver struct {
	// Source holds the pending inputs and the backup and error folders.
	Source storage.Store

	// Output receives the summary sheet. Nil writes it to Source.
	Output storage.Store

	// SheetName is the summary file name. Empty uses DefaultSheetName.
	SheetName string

	Runner  *pipeline.Runner
	Options pipeline.Options
	Logger  *log.Logger
}

// Failure records an input moved to the error folder.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a run.
type Report struct {
	Processed  int
	Duplicates int
	Failed     []Failure

	// Sheet is the name the summary was written to.
	Sheet string
}

type outcome int

const (
	processed outcome = iota
	duplicate
	failed
)

func (o outcome) String() string {
	switch o {
	case duplicate:
		return observability.OutcomeDuplicate
	case failed:
		return observability.OutcomeFailed
	}
	return observability.OutcomeProcessed
}

// Run processes every pending input.
//
// Input problems are confined to the offending file. Storage failures and
// cancellation stop the run; the report then covers the files finished so
// far and no sheet is written.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	runner := d.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}

	start := time.Now()
	names, err := d.Source.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list %s", d.Source.Location())
	}

	report := &Report{}
	summary := sheet.New()
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := errors.ValidateFileName(name); err != nil {
			logger.Warn("skipping input", "file", name, "reason", errors.UserMessage(err))
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fileStart := time.Now()
		res, err := d.processFile(ctx, runner, summary, name)
		if err != nil {
			return report, err
		}
		switch res.outcome {
		case processed:
			report.Processed++
			logger.Info("processed", "file", name, "apps", res.apps)
		case duplicate:
			report.Duplicates++
			logger.Info("duplicate of backup, removed", "file", name)
		case failed:
			report.Failed = append(report.Failed, Failure{Name: name, Err: res.err})
			logger.Error("moved to error folder", "file", name, "error", errors.UserMessage(res.err))
		}
		observability.Batch().OnFileDone(ctx, name, res.outcome.String(), time.Since(fileStart))
	}

	data, err := summary.Bytes()
	if err != nil {
		return report, errors.Wrap(errors.ErrCodeInternal, err, "render summary sheet")
	}
	out := d.Output
	if out == nil {
		out = d.Source
	}
	report.Sheet = d.SheetName
	if report.Sheet == "" {
		report.Sheet = DefaultSheetName
	}
	if err := out.Write(ctx, report.Sheet, data); err != nil {
		return report, errors.Wrap(errors.ErrCodeStorage, err, "write %s", report.Sheet)
	}

	observability.Batch().OnBatchComplete(ctx, report.Processed, report.Duplicates, len(report.Failed), time.Since(start))
	logger.Info("batch complete",
		"processed", report.Processed,
		"duplicates", report.Duplicates,
		"failed", len(report.Failed),
		"sheet", report.Sheet)
	return report, nil
}

type fileResult struct {
	outcome outcome
	apps    int
	err     error
}

func (d *Driver) processFile(ctx context.Context, runner *pipeline.Runner, summary *sheet.Sheet, name string) (fileResult, error) {
	data, err := d.Source.Read(ctx, name)
	if err != nil {
		return fileResult{}, errors.Wrap(errors.ErrCodeStorage, err, "read %s", name)
	}

	backup := path.Join(BackupDir, name)
	dup, err := d.isDuplicate(ctx, data, backup)
	if err != nil {
		return fileResult{}, err
	}
	if dup {
		if err := d.Source.Delete(ctx, name); err != nil {
			return fileResult{}, errors.Wrap(errors.ErrCodeStorage, err, "delete %s", name)
		}
		return fileResult{outcome: duplicate}, nil
	}

	res, inputErr, err := d.run(ctx, runner, data)
	if err != nil {
		return fileResult{}, fmt.Errorf("%s: %w", name, err)
	}
	if inputErr != nil {
		if err := d.Source.Move(ctx, name, path.Join(ErrorDir, name)); err != nil {
			return fileResult{}, errors.Wrap(errors.ErrCodeStorage, err, "move %s to %s", name, ErrorDir)
		}
		return fileResult{outcome: failed, err: inputErr}, nil
	}

	summary.Append(sheet.Record{
		ConnectedApp: res.connectedApp,
		Body:         res.body,
		FileName:     name,
		URL:          res.url,
	})
	if err := d.Source.Move(ctx, name, backup); err != nil {
		return fileResult{}, errors.Wrap(errors.ErrCodeStorage, err, "move %s to %s", name, BackupDir)
	}
	return fileResult{outcome: processed, apps: res.apps}, nil
}

type runResult struct {
	connectedApp string
	body         string
	url          string
	apps         int
}

// run decodes and builds one input. Problems with the input itself come
// back as inputErr; anything else is fatal for the batch.
func (d *Driver) run(ctx context.Context, runner *pipeline.Runner, data []byte) (res runResult, inputErr, err error) {
	rows, err := model.DecodeRowsBytes(data)
	if err != nil {
		return res, err, nil
	}
	result, err := runner.Execute(ctx, rows, d.Options)
	if err != nil {
		if errors.IsInputError(err) {
			return res, err, nil
		}
		return res, nil, err
	}

	var body bytes.Buffer
	if err := json.Compact(&body, data); err != nil {
		body.Reset()
		body.Write(data)
	}
	return runResult{
		connectedApp: model.ConnectedApp(rows),
		body:         body.String(),
		url:          result.URL,
		apps:         result.Stats.Apps,
	}, nil, nil
}

// isDuplicate reports whether backup holds the same JSON value as data.
// An unreadable backup never matches.
func (d *Driver) isDuplicate(ctx context.Context, data []byte, backup string) (bool, error) {
	ok, err := d.Source.Exists(ctx, backup)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "stat %s", backup)
	}
	if !ok {
		return false, nil
	}
	prev, err := d.Source.Read(ctx, backup)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "read %s", backup)
	}
	return jsonEqual(data, prev), nil
}

func jsonEqual(a, b []byte) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
