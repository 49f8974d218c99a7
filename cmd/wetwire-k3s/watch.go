package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-k3s-go/internal/lint"
)

// newWatchCmd creates the "watch" subcommand for rebuilding on file changes.
func newWatchCmd(opts *rootOptions) *cobra.Command {
	var w watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild when the configuration or boot scripts change",
		Long: `Watch monitors the configuration file and both boot scripts and re-runs lint
and build whenever one of them is saved. Rapid changes are debounced.

Examples:
    wetwire-k3s watch -o template.json
    wetwire-k3s watch --lint-only
    wetwire-k3s watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, w)
		},
	}

	cmd.Flags().BoolVar(&w.lintOnly, "lint-only", false, "Only run lint, skip build")
	cmd.Flags().DurationVar(&w.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&w.outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&w.outputFile, "output", "o", "", "Output file for build (default: summary only)")

	return cmd
}

type watchOptions struct {
	lintOnly     bool
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

func runWatch(cmd *cobra.Command, opts *rootOptions, w watchOptions) error {
	log := opts.logger()
	out := cmd.OutOrStdout()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracked := make(map[string]bool)
	// Directories are watched rather than files so that editors which replace
	// the file on save keep being seen.
	track := func() {
		for _, path := range opts.watchedPaths(cmd) {
			if tracked[path] {
				continue
			}
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				log.Warnw("cannot watch", "path", path, "error", err)
				continue
			}
			tracked[path] = true
			log.Infow("watching", "path", path)
		}
	}

	rebuild := func() {
		runLintAndBuild(out, cmd, opts, w)
		// A config edit may point at different scripts.
		track()
	}

	fmt.Fprintln(out, "Running initial lint/build...")
	rebuild()
	fmt.Fprintln(out, "\nWatching for changes... (Ctrl+C to stop)")

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(event, tracked) {
				continue
			}
			log.Debugw("change", "path", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(out, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watch error", "error", err)

		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopping watch...")
			return nil
		}
	}
}

// watchedPaths returns the absolute paths of the config file and, when it
// loads, the boot scripts it names.
func (o *rootOptions) watchedPaths(cmd *cobra.Command) []string {
	var paths []string
	if abs, err := filepath.Abs(o.configPath); err == nil {
		paths = append(paths, abs)
	}

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return paths
	}
	for _, p := range []string{cfg.UserData.Master, cfg.UserData.Agent} {
		if abs, err := filepath.Abs(p); err == nil {
			paths = append(paths, abs)
		}
	}
	return paths
}

// isRelevant reports whether event writes, creates or replaces a tracked file.
func isRelevant(event fsnotify.Event, tracked map[string]bool) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return tracked[abs]
}

// runLintAndBuild synthesizes the stack, lints it and, if lint passes and
// lintOnly is unset, writes the template.
func runLintAndBuild(out io.Writer, cmd *cobra.Command, opts *rootOptions, w watchOptions) {
	s, err := opts.synthesize(cmd)
	if err != nil {
		fmt.Fprintf(out, "Build error: %v\n", err)
		return
	}

	result, err := lint.Lint(s.lintInput(), lint.Options{})
	if err != nil {
		fmt.Fprintf(out, "Lint error: %v\n", err)
		return
	}
	for _, issue := range result.Issues {
		fmt.Fprintln(out, issue.String())
	}
	if !result.Success {
		fmt.Fprintln(out, "Lint failed, skipping build")
		return
	}
	fmt.Fprintln(out, "Lint passed")

	if w.lintOnly {
		return
	}

	if w.outputFile == "" {
		fmt.Fprintf(out, "Build successful: %d resources\n", len(s.template.Resources))
		return
	}
	if err := writeTemplate(out, s, w.outputFormat, w.outputFile, opts); err != nil {
		fmt.Fprintf(out, "Build error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Build successful, wrote %s\n", w.outputFile)
}
