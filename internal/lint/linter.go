// Package lint checks a synthesized k3s stack for structural invariants.
package lint

import (
	"fmt"
	"path/filepath"
	"sort"

	corelint "github.com/lex00/wetwire-core-go/lint"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/k3s"
)

// Severity is an alias for corelint.Severity.
type Severity = corelint.Severity

const (
	SeverityError   = corelint.SeverityError
	SeverityWarning = corelint.SeverityWarning
	SeverityInfo    = corelint.SeverityInfo
)

// Issue is a rule violation on one template resource. File and Line point at
// the code that declared the resource when the stack is known.
type Issue struct {
	corelint.Issue
	Resource string
	// Path is the property path inside the resource, if any.
	Path string
}

func newIssue(rule string, severity Severity, resource, path, msg string) Issue {
	return Issue{
		Issue:    corelint.Issue{Rule: rule, Severity: severity, Message: msg},
		Resource: resource,
		Path:     path,
	}
}

func (i Issue) String() string {
	s := fmt.Sprintf("%s [%s]", i.Rule, i.Severity)
	switch {
	case i.Path != "":
		s += fmt.Sprintf(" %s.%s:", i.Resource, i.Path)
	case i.Resource != "":
		s += fmt.Sprintf(" %s:", i.Resource)
	}
	s += " " + i.Message
	if i.File != "" {
		s += fmt.Sprintf(" (%s:%d)", filepath.Base(i.File), i.Line)
	}
	return s
}

// Input is what rules inspect. Cluster and Stack are optional; rules that need
// to know which resource plays which role skip without a Cluster, and issues
// carry no source position without a Stack.
type Input struct {
	Template *wetwire.Template
	Cluster  *k3s.Cluster
	Stack    *k3s.Stack
}

// Rule is a check over a whole template. It mirrors corelint.Rule with the
// template in place of a Go syntax tree.
type Rule interface {
	ID() string
	Description() string
	Check(in *Input) []Issue
}

// Result contains the outcome of linting.
type Result struct {
	// Success is false when any reported issue is an error.
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// DisabledRules are skipped even when listed in EnabledRules.
	DisabledRules []string
	// ErrorsOnly drops warning and info issues.
	ErrorsOnly bool
}

func (o Options) config() *corelint.Config {
	cfg := &corelint.Config{
		DisabledRules: o.DisabledRules,
		MinSeverity:   SeverityInfo,
	}
	if o.ErrorsOnly {
		cfg.MinSeverity = SeverityError
	}
	return cfg
}

// Lint runs the enabled rules.
func Lint(in *Input, opts Options) (Result, error) {
	if in == nil || in.Template == nil {
		return Result{}, fmt.Errorf("no template to lint")
	}

	cfg := opts.config()
	var issues []Issue
	for _, rule := range getRules(opts, cfg) {
		for _, issue := range rule.Check(in) {
			if !cfg.ShouldReport(issue.Issue) {
				continue
			}
			if in.Stack != nil {
				if file, line, ok := in.Stack.Source(issue.Resource); ok {
					issue.File, issue.Line = file, line
				}
			}
			issues = append(issues, issue)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Rule != issues[j].Rule {
			return issues[i].Rule < issues[j].Rule
		}
		return issues[i].Resource < issues[j].Resource
	})

	success := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			success = false
			break
		}
	}

	return Result{Success: success, Issues: issues}, nil
}

// ToLintResult converts a Result for JSON output.
func ToLintResult(r Result) wetwire.LintResult {
	out := wetwire.LintResult{Success: r.Success}
	for _, issue := range r.Issues {
		out.Issues = append(out.Issues, wetwire.LintIssue{
			Resource: issue.Resource,
			Path:     issue.Path,
			Severity: issue.Severity.String(),
			Message:  issue.Message,
			Rule:     issue.Rule,
			File:     issue.File,
			Line:     issue.Line,
		})
	}
	return out
}

// AllRules returns every rule in ID order.
func AllRules() []Rule {
	return []Rule{
		RoleDirection{},
		UserDataPayload{},
		PoolBounds{},
		SubnetsInSourceRange{},
		PlaceholderFirewall{},
	}
}

func getRules(opts Options, cfg *corelint.Config) []Rule {
	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range AllRules() {
		if len(enabled) > 0 && !enabled[r.ID()] {
			continue
		}
		if cfg.IsRuleDisabled(r.ID()) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
