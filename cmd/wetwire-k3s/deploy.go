package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-k3s-go/internal/deploy"
	"github.com/lex00/wetwire-k3s-go/internal/template"
)

type deployOptions struct {
	stackName  string
	region     string
	profile    string
	bucket     string
	prefix     string
	parameters map[string]string
	tags       map[string]string
	noWait     bool
	timeout    time.Duration
}

func newDeployCmd(opts *rootOptions) *cobra.Command {
	d := deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the CloudFormation stack",
		Long: `Deploy synthesizes the template and submits it to CloudFormation, creating the
stack if it does not exist and updating it otherwise. Templates larger than
51,200 bytes must be staged in S3 with --bucket.

Credentials come from the default AWS chain; --profile selects a shared
config profile.

Examples:
    wetwire-k3s deploy
    wetwire-k3s deploy --stack-name k3s-dev --region eu-west-1
    wetwire-k3s deploy --bucket my-artifacts --parameter MachineImageId=ami-0abc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.synthesize(cmd)
			if err != nil {
				return err
			}
			d.applyConfig(cmd, s)

			body, err := template.ToJSON(s.template)
			if err != nil {
				return err
			}

			log := opts.logger()
			deployer, err := deploy.New(cmd.Context(), d.region, d.profile, log)
			if err != nil {
				return err
			}

			result, err := deployer.Deploy(cmd.Context(), body, deploy.Options{
				StackName:  d.stackName,
				Bucket:     d.bucket,
				Prefix:     d.prefix,
				Parameters: d.parameters,
				Tags:       d.tags,
				Wait:       !d.noWait,
				Timeout:    d.timeout,
			})
			if err != nil {
				return err
			}
			printDeployResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&d.stackName, "stack-name", "", "Stack name (default: stack_name from config)")
	cmd.Flags().StringVar(&d.region, "region", "", "AWS region (default: deploy.region from config, then the AWS chain)")
	cmd.Flags().StringVar(&d.profile, "profile", "", "Shared config profile")
	cmd.Flags().StringVar(&d.bucket, "bucket", "", "S3 bucket to stage the template in")
	cmd.Flags().StringVar(&d.prefix, "prefix", "", "Key prefix for the staged template")
	cmd.Flags().StringToStringVar(&d.parameters, "parameter", nil, "Template parameter override, KEY=VALUE")
	cmd.Flags().StringToStringVar(&d.tags, "tag", nil, "Stack tag, KEY=VALUE")
	cmd.Flags().BoolVar(&d.noWait, "no-wait", false, "Return once the change is submitted")
	cmd.Flags().DurationVar(&d.timeout, "timeout", deploy.DefaultTimeout, "How long to wait for the stack")

	return cmd
}

// applyConfig fills flags the user left unset from the configuration file.
func (d *deployOptions) applyConfig(cmd *cobra.Command, s *synthesis) {
	flags := cmd.Flags()
	if !flags.Changed("stack-name") {
		d.stackName = s.cfg.StackName
	}
	if !flags.Changed("region") {
		d.region = s.cfg.Deploy.Region
	}
	if !flags.Changed("profile") {
		d.profile = s.cfg.Deploy.Profile
	}
	if !flags.Changed("bucket") {
		d.bucket = s.cfg.Deploy.Bucket
	}
	if !flags.Changed("prefix") {
		d.prefix = s.cfg.Deploy.Prefix
	}
}

func printDeployResult(w io.Writer, result *deploy.Result) {
	fmt.Fprintf(w, "Stack %s %s", result.StackName, result.Action)
	if result.Status != "" {
		fmt.Fprintf(w, " (%s)", result.Status)
	}
	fmt.Fprintln(w)

	if len(result.Outputs) == 0 {
		return
	}

	keys := make([]string, 0, len(result.Outputs))
	for k := range result.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "\nOutputs:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %s\n", k, result.Outputs[k])
	}
}
