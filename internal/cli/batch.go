package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/interflow/pkg/batch"
	"github.com/matzehuels/interflow/pkg/errors"
	"github.com/matzehuels/interflow/pkg/storage"
)

type batchOpts struct {
	output  string
	sheet   string
	strict  bool
	noCache bool
	quiet   bool
}

// batchCommand creates the "batch" command.
func (c *CLI) batchCommand() *cobra.Command {
	var opts batchOpts

	cmd := &cobra.Command{
		Use:   "batch [source]",
		Short: "Build viewer links for every rows file in a folder",
		Long: `Processes every *.json file at the root of a local folder or s3://bucket/prefix location.

Processed files move to backup/, unreadable ones to error/, and files identical to
their backup copy are removed. A summary sheet with one viewer link per file is
written at the end.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := c.Config.Batch.Source
			if len(args) == 1 {
				source = args[0]
			}
			if source == "" {
				return errors.New(errors.ErrCodeInvalidInput, "no source given and batch.source is not configured")
			}
			if !cmd.Flags().Changed("output") {
				opts.output = c.Config.Batch.Output
			}
			if !cmd.Flags().Changed("sheet") {
				opts.sheet = c.Config.Batch.Sheet
			}
			return c.runBatch(cmd, source, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "location for the summary sheet (default: the source)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", batch.DefaultSheetName, "summary sheet file name")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "move files with unknown app_type values to error/")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress spinner")
	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, source string, opts *batchOpts) error {
	ctx := cmd.Context()
	src, err := storage.Open(ctx, source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	var dst storage.Store
	if opts.output != "" {
		if dst, err = storage.Open(ctx, opts.output); err != nil {
			return fmt.Errorf("open %s: %w", opts.output, err)
		}
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	pipeOpts := c.pipelineOptions(cmd, &buildFlags{strict: opts.strict})
	driver := &batch.Driver{
		Source:    src,
		Output:    dst,
		SheetName: opts.sheet,
		Runner:    runner,
		Options:   pipeOpts,
		Logger:    c.Logger,
	}

	prog := newProgress(c.Logger)
	var spin *Spinner
	if !opts.quiet {
		spin = newSpinner(ctx, cmd.ErrOrStderr(), "Processing "+src.Location())
		spin.Start()
	}
	report, err := driver.Run(ctx)
	if spin != nil {
		spin.Stop()
	}

	out := cmd.OutOrStdout()
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		printError(out, "Batch stopped: %s", errors.UserMessage(err))
		return err
	}
	prog.done("batch finished", "source", src.Location())
	return nil
}

func printReport(cmd *cobra.Command, r *batch.Report) {
	out := cmd.OutOrStdout()
	if r.Sheet != "" {
		printSuccess(out, "Wrote %s", r.Sheet)
	}
	printKeyValue(out, "processed", fmt.Sprint(r.Processed))
	printKeyValue(out, "duplicates", fmt.Sprint(r.Duplicates))
	printKeyValue(out, "failed", fmt.Sprint(len(r.Failed)))
	for _, f := range r.Failed {
		printWarning(out, "%s: %s", f.Name, errors.UserMessage(f.Err))
	}
	if len(r.Failed) > 0 {
		printNextStep(out, "Fix the inputs and move them back from the error folder, then rerun", cmd.CommandPath())
	}
}
