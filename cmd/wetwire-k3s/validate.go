package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/internal/validation"
)

var errValidationFailed = errors.New("validation failed")

// newValidateCmd creates the "validate" subcommand for checking the template.
func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat string
		strict       bool
		skipCfnLint  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the template against CloudFormation schemas",
		Long: `Validate synthesizes the template and checks it offline.

Checks performed:
  - Schema: required properties and property types of every resource
  - cfn-lint: the CloudFormation linter rules

Examples:
    wetwire-k3s validate
    wetwire-k3s validate --strict --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.synthesize(cmd)
			if err != nil {
				return err
			}

			result, err := validation.Validate(s.template, validation.Options{
				Strict:      strict,
				SkipCfnLint: skipCfnLint,
			})
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), *result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&strict, "strict", false, "Report unknown properties as warnings")
	cmd.Flags().BoolVar(&skipCfnLint, "skip-cfn-lint", false, "Run the offline schema check only")

	return cmd
}

func outputValidateResult(w io.Writer, result wetwire.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
		} else {
			fmt.Fprintln(w, "Validation FAILED:")
		}
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}
