package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-k3s-go"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources",
		Long: `List shows every resource the stack declares, with its CloudFormation type
and where it was declared.

Examples:
    wetwire-k3s list
    wetwire-k3s list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.synthesize(cmd)
			if err != nil {
				return err
			}
			result, err := listResources(s)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResources(s *synthesis) (wetwire.ListResult, error) {
	resources, err := s.stack.Discover()
	if err != nil {
		return wetwire.ListResult{}, err
	}

	result := wetwire.ListResult{
		Resources: make([]wetwire.ListResource, 0, len(resources)),
	}
	for name, res := range resources {
		result.Resources = append(result.Resources, wetwire.ListResource{
			Name: name,
			Type: res.ResourceType,
			File: filepath.Base(res.File),
			Line: res.Line,
		})
	}

	sort.Slice(result.Resources, func(i, j int) bool {
		return result.Resources[i].Name < result.Resources[j].Name
	})
	return result, nil
}

func outputListResult(w io.Writer, result wetwire.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources declared.")
			return nil
		}

		fmt.Fprintf(w, "Declared resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %-36s %-40s %s:%d\n", res.Name, res.Type, res.File, res.Line)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
