package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-k3s-go/internal/config"
)

const masterScript = `#!/bin/bash
set -euo pipefail

curl -sfL https://get.k3s.io | sh -s - server

REGION=$(curl -s http://169.254.169.254/latest/meta-data/placement/region)
IP=$(curl -s http://169.254.169.254/latest/meta-data/local-ipv4)

aws ssm put-parameter --region "$REGION" --overwrite --type SecureString \
  --name %[1]s/token --value "$(cat /var/lib/rancher/k3s/server/node-token)"
aws ssm put-parameter --region "$REGION" --overwrite --type String \
  --name %[1]s/url --value "https://$IP:6443"
`

const agentScript = `#!/bin/bash
set -euo pipefail

REGION=$(curl -s http://169.254.169.254/latest/meta-data/placement/region)

until URL=$(aws ssm get-parameter --region "$REGION" --name %[1]s/url \
  --query Parameter.Value --output text 2>/dev/null); do
  sleep 10
done
TOKEN=$(aws ssm get-parameter --region "$REGION" --name %[1]s/token \
  --with-decryption --query Parameter.Value --output text)

curl -sfL https://get.k3s.io | K3S_URL="$URL" K3S_TOKEN="$TOKEN" sh -s - agent
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default k3s.yaml and boot scripts",
		Long: `Init writes the reference configuration and sample master and agent boot
scripts into a directory (default: the current one).

The master script publishes the join token and server URL to the parameter
namespace; the agent script waits for them and joins.

Examples:
    wetwire-k3s init
    wetwire-k3s init clusters/dev`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd.OutOrStdout(), dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

// runInit writes the project files into dir.
func runInit(w io.Writer, dir string, force bool) error {
	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	files := []struct {
		path string
		data []byte
		mode os.FileMode
	}{
		{config.DefaultFile, data, 0644},
		{cfg.UserData.Master, []byte(fmt.Sprintf(masterScript, cfg.Parameters.Namespace)), 0755},
		{cfg.UserData.Agent, []byte(fmt.Sprintf(agentScript, cfg.Parameters.Namespace)), 0755},
	}

	if !force {
		for _, f := range files {
			path := filepath.Join(dir, f.path)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}

	for _, f := range files {
		path := filepath.Join(dir, f.path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, f.data, f.mode); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(w, "  wrote %s\n", path)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintf(w, "  wetwire-k3s build --config %s\n", filepath.Join(dir, config.DefaultFile))
	return nil
}
