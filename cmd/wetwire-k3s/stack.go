package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/internal/config"
	"github.com/lex00/wetwire-k3s-go/internal/lint"
	"github.com/lex00/wetwire-k3s-go/k3s"
)

// synthesis is one evaluation of the configured stack.
type synthesis struct {
	cfg      *config.Config
	stack    *k3s.Stack
	cluster  *k3s.Cluster
	template *wetwire.Template
}

// loadConfig reads --config. A missing default file means the reference
// configuration; a missing file named explicitly is an error.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(o.configPath); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		o.logger().Debugw("no config file, using defaults", "path", o.configPath)
		return config.Default(), nil
	}

	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, err
	}
	o.logger().Debugw("loaded config", "path", o.configPath, "stack", cfg.StackName)
	return cfg, nil
}

// synthesize loads the configuration and declares the stack it describes.
func (o *rootOptions) synthesize(cmd *cobra.Command) (*synthesis, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return synthesizeConfig(cfg)
}

func synthesizeConfig(cfg *config.Config) (*synthesis, error) {
	stack := k3s.NewStack(cfg.Description)
	cluster, err := k3s.Declare(stack, cfg)
	if err != nil {
		return nil, fmt.Errorf("declaring stack: %w", err)
	}

	tmpl, err := stack.Template()
	if err != nil {
		return nil, fmt.Errorf("building template: %w", err)
	}

	return &synthesis{cfg: cfg, stack: stack, cluster: cluster, template: tmpl}, nil
}

func (s *synthesis) lintInput() *lint.Input {
	return &lint.Input{Template: s.template, Cluster: s.cluster, Stack: s.stack}
}
