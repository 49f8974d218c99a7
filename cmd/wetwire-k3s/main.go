// Command wetwire-k3s synthesizes the CloudFormation stack that hosts a k3s
// cluster on AWS.
//
// Usage:
//
//	wetwire-k3s build               Generate CloudFormation template
//	wetwire-k3s lint                Check stack invariants
//	wetwire-k3s deploy              Create or update the stack
//	wetwire-k3s init                Write a default k3s.yaml
//	wetwire-k3s version             Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-k3s-go/internal/config"
	"github.com/lex00/wetwire-k3s-go/internal/log"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logging    log.Options

	sugar *zap.SugaredLogger
}

// logger returns the command logger, or a no-op one before flags are parsed.
func (o *rootOptions) logger() *zap.SugaredLogger {
	if o.sugar == nil {
		return zap.NewNop().Sugar()
	}
	return o.sugar
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logging: log.NewDefaultOptions()}

	rootCmd := &cobra.Command{
		Use:   "wetwire-k3s",
		Short: "Generate the AWS stack for a k3s cluster",
		Long: `wetwire-k3s declares the AWS infrastructure for a k3s cluster and renders it
as a CloudFormation template: a VPC with ingress, master and worker subnets,
IAM roles that write or read the shared parameter namespace, a node security
group, master and agent launch templates, and a worker autoscaling group.

The layout is read from k3s.yaml (see "wetwire-k3s init"):

    wetwire-k3s build -o template.json
    wetwire-k3s deploy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.sugar = log.NewFromOptions(opts.logging).Sugar()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultFile, "Stack configuration file")
	opts.logging.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newValidateCmd(opts),
		newLintCmd(opts),
		newListCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(opts),
		newDeployCmd(opts),
		newWatchCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-k3s %s\n", getVersion())
		},
	}
}
