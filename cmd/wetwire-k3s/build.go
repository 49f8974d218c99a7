package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-k3s-go/internal/template"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the CloudFormation template",
		Long: `Build declares the k3s stack described by the configuration file and writes
the CloudFormation template.

Examples:
    wetwire-k3s build
    wetwire-k3s build -o template.json
    wetwire-k3s build --format yaml --config prod.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.synthesize(cmd)
			if err != nil {
				return err
			}
			return writeTemplate(cmd.OutOrStdout(), s, outputFormat, outputFile, opts)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func writeTemplate(w io.Writer, s *synthesis, format, outputFile string, opts *rootOptions) error {
	data, err := template.Encode(s.template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	opts.logger().Infow("wrote template", "path", outputFile, "resources", len(s.template.Resources))
	return nil
}
