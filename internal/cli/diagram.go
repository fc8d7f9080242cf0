package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/interflow/pkg/model"
	"github.com/matzehuels/interflow/pkg/pipeline"
	"github.com/matzehuels/interflow/pkg/preview"
)

// buildFlags are shared by the commands that build a diagram.
type buildFlags struct {
	output  string // output file; empty writes to stdout
	strict  bool   // reject unknown app types
	refresh bool   // rebuild even when cached
	noCache bool   // bypass the cache entirely
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on unknown app_type values")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rebuild and overwrite cached results")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// urlCommand creates the "url" command.
func (c *CLI) urlCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "url [rows.json]",
		Short: "Print the viewer link for a rows file",
		Long:  `Builds the wiring diagram for a JSON array of interface rows (read from stdin when no file or "-" is given) and prints its viewer link.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.build(cmd, args, &flags)
			if err != nil {
				return err
			}
			if flags.output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.URL)
				return nil
			}
			if err := os.WriteFile(flags.output, []byte(res.URL+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", flags.output, err)
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Wrote viewer link")
			printFile(out, flags.output)
			printStats(out, res.Stats.Apps, res.Stats.Rows, res.Stats.Cells, res.CacheHit)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// xmlCommand creates the "xml" command.
func (c *CLI) xmlCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "xml [rows.json]",
		Short: "Write the draw.io document for a rows file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.build(cmd, args, &flags)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, flags.output, res.XML); err != nil {
				return err
			}
			if flags.output != "" {
				out := cmd.OutOrStdout()
				printSuccess(out, "Wrote draw.io document")
				printFile(out, flags.output)
				printStats(out, res.Stats.Apps, res.Stats.Rows, res.Stats.Cells, res.CacheHit)
				printLink(out, res.URL)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// previewCommand creates the "preview" command.
func (c *CLI) previewCommand() *cobra.Command {
	var flags buildFlags
	format := pipeline.DefaultPreviewFormat
	cmd := &cobra.Command{
		Use:   "preview [rows.json]",
		Short: "Render a Graphviz preview of the application chain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidatePreviewFormat(format); err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			res, err := c.execute(cmd, args, &flags, runner)
			if err != nil {
				return err
			}
			opts := c.pipelineOptions(cmd, &flags)
			opts.PreviewFormat = format
			data, err := runner.Preview(cmd.Context(), res, opts)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, flags.output, data); err != nil {
				return err
			}
			if flags.output != "" {
				printSuccess(cmd.OutOrStdout(), "Rendered %s preview", format)
				printFile(cmd.OutOrStdout(), flags.output)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", format, fmt.Sprintf("preview format: %s (default), %s", preview.FormatSVG, preview.FormatDOT))
	return cmd
}

// build reads rows from the argument (or stdin) and runs the pipeline.
func (c *CLI) build(cmd *cobra.Command, args []string, flags *buildFlags) (*pipeline.Result, error) {
	runner, err := c.newRunner(cmd.Context(), flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Cache.Close()
	return c.execute(cmd, args, flags, runner)
}

func (c *CLI) execute(cmd *cobra.Command, args []string, flags *buildFlags, runner *pipeline.Runner) (*pipeline.Result, error) {
	rows, err := readRows(cmd.InOrStdin(), args)
	if err != nil {
		return nil, err
	}
	return runner.Execute(cmd.Context(), rows, c.pipelineOptions(cmd, flags))
}

func readRows(stdin io.Reader, args []string) ([]model.Row, error) {
	if len(args) == 0 || args[0] == "-" {
		return model.DecodeRows(stdin)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := model.DecodeRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}
	return rows, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
