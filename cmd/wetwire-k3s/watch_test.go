package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(&rootOptions{})

	if cmd.Use != "watch" {
		t.Errorf("Use = %q, want 'watch'", cmd.Use)
	}

	for _, flag := range []string{"lint-only", "debounce", "format", "output"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}

	if got := cmd.Flags().Lookup("debounce").DefValue; got != "500ms" {
		t.Errorf("debounce default = %q, want '500ms'", got)
	}
}

func TestIsRelevant(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "master.sh")
	tracked := map[string]bool{script: true}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write tracked", fsnotify.Event{Name: script, Op: fsnotify.Write}, true},
		{"replaced by editor", fsnotify.Event{Name: script, Op: fsnotify.Create}, true},
		{"renamed", fsnotify.Event{Name: script, Op: fsnotify.Rename}, true},
		{"chmod only", fsnotify.Event{Name: script, Op: fsnotify.Chmod}, false},
		{"removed", fsnotify.Event{Name: script, Op: fsnotify.Remove}, false},
		{"sibling file", fsnotify.Event{Name: filepath.Join(dir, "master.sh.swp"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRelevant(tt.event, tracked); got != tt.want {
				t.Errorf("isRelevant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatchedPaths(t *testing.T) {
	cfgPath := project(t)
	dir := filepath.Dir(cfgPath)

	opts := &rootOptions{configPath: cfgPath}
	paths := opts.watchedPaths(newWatchCmd(opts))

	assert.Equal(t, []string{
		cfgPath,
		filepath.Join(dir, "lib", "userdata", "master.sh"),
		filepath.Join(dir, "lib", "userdata", "agent.sh"),
	}, paths)
}

func TestRunLintAndBuild(t *testing.T) {
	cfgPath := project(t)
	outFile := filepath.Join(t.TempDir(), "template.json")

	opts := &rootOptions{configPath: cfgPath}

	var out bytes.Buffer
	runLintAndBuild(&out, newWatchCmd(opts), opts, watchOptions{outputFormat: "json", outputFile: outFile})

	assert.Contains(t, out.String(), "Lint passed")
	assert.Contains(t, out.String(), "Build successful, wrote "+outFile)
}
