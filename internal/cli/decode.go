package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/interflow/pkg/diagram"
	"github.com/matzehuels/interflow/pkg/payload"
)

// decodeCommand creates the "decode" command.
func (c *CLI) decodeCommand() *cobra.Command {
	var output string
	var summary bool

	cmd := &cobra.Command{
		Use:   "decode [payload|url]",
		Short: "Recover the draw.io document from a viewer link",
		Long:  `Decodes a viewer link or bare payload (read from stdin when omitted) back into the draw.io document.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			data, err := payload.Decode(in)
			if err != nil {
				return err
			}

			if summary {
				doc, err := diagram.Parse(data)
				if err != nil {
					return fmt.Errorf("parse decoded document: %w", err)
				}
				out := cmd.OutOrStdout()
				printKeyValue(out, "vertices", fmt.Sprint(len(doc.Vertices())))
				printKeyValue(out, "edges", fmt.Sprint(len(doc.Edges())))
				printKeyValue(out, "page width", fmt.Sprint(doc.Page.Model.PageWidth))
				printKeyValue(out, "page height", fmt.Sprint(doc.Page.Model.PageHeight))
				return nil
			}

			if err := writeOutput(cmd, output, data); err != nil {
				return err
			}
			if output != "" {
				printSuccess(cmd.OutOrStdout(), "Decoded %d bytes", len(data))
				printFile(cmd.OutOrStdout(), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print cell counts instead of the document")
	return cmd
}

func readArg(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
