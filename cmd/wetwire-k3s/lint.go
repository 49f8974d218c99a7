package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-k3s-go/internal/lint"
)

var errLintFailed = errors.New("lint found errors")

func newLintCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat string
		rules        []string
		disabled     []string
		errorsOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the stack for structural issues",
		Long: `Lint synthesizes the stack and checks the invariants a k3s cluster relies on.

Rules:
    K3S001: Master role writes and worker role reads the parameter namespace
    K3S002: Launch template userdata is the base64 of its boot script
    K3S003: Worker pool bounds are ordered and non-negative
    K3S004: Every subnet lies inside the firewall source range
    K3S005: Firewall still opens every port (info)

Examples:
    wetwire-k3s lint
    wetwire-k3s lint --rules K3S001,K3S002 --format json
    wetwire-k3s lint --disable K3S005`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.synthesize(cmd)
			if err != nil {
				return err
			}

			result, err := lint.Lint(s.lintInput(), lint.Options{
				EnabledRules:  rules,
				DisabledRules: disabled,
				ErrorsOnly:    errorsOnly,
			})
			if err != nil {
				return err
			}
			return outputLintResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "Rule IDs to run (default: all)")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "Rule IDs to skip")
	cmd.Flags().BoolVar(&errorsOnly, "errors-only", false, "Report only errors")

	return cmd
}

func outputLintResult(w io.Writer, result lint.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(lint.ToLintResult(result), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Issues) == 0 {
			fmt.Fprintln(w, "No issues found.")
		}
		for _, issue := range result.Issues {
			fmt.Fprintln(w, issue.String())
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errLintFailed
	}
	return nil
}
