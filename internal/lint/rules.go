// Rules:
//
//	K3S001: Node identities grant exactly their direction on the shared namespace
//	K3S002: Launch templates embed their boot script byte-for-byte
//	K3S003: Scaling group bounds are non-negative and ordered
//	K3S004: Every subnet lies inside the firewall's source range
//	K3S005: The firewall still uses an allow-all placeholder rule
package lint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/match"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/internal/config"
	"github.com/lex00/wetwire-k3s-go/k3s"
)

var (
	writeActions = []string{
		"ssm:PutParameter",
		"ssm:DeleteParameter",
		"ssm:DeleteParameters",
		"ssm:LabelParameterVersion",
	}
	readActions = []string{
		"ssm:GetParameter",
		"ssm:GetParameters",
		"ssm:GetParametersByPath",
		"ssm:GetParameterHistory",
	}
)

// RoleDirection checks that the control-plane identity can only write the
// shared namespace and the worker identity can only read it, and that each
// launch template carries the identity of its role.
type RoleDirection struct{}

func (r RoleDirection) ID() string { return "K3S001" }
func (r RoleDirection) Description() string {
	return "Node identities grant exactly their direction on the shared namespace"
}

func (r RoleDirection) Check(in *Input) []Issue {
	c := in.Cluster
	if c == nil || c.Master == nil || c.Worker == nil {
		return nil
	}

	var issues []Issue
	for _, pair := range []struct {
		id   *k3s.Identity
		want k3s.Access
	}{
		{c.Master, k3s.AccessWrite},
		{c.Worker, k3s.AccessRead},
	} {
		name := pair.id.Role.Name()
		res, ok := in.Template.Resources[name]
		if !ok {
			issues = append(issues, r.issue(name, "", "role is missing from the template"))
			continue
		}

		actions := namespaceActions(res.Properties, pair.id.Resource)
		write, read := grants(actions, writeActions), grants(actions, readActions)

		switch pair.want {
		case k3s.AccessWrite:
			if !write {
				issues = append(issues, r.issue(name, "Policies", fmt.Sprintf("control-plane role cannot write %s", pair.id.Resource)))
			}
			if read {
				issues = append(issues, r.issue(name, "Policies", fmt.Sprintf("control-plane role may also read %s", pair.id.Resource)))
			}
		case k3s.AccessRead:
			if !read {
				issues = append(issues, r.issue(name, "Policies", fmt.Sprintf("worker role cannot read %s", pair.id.Resource)))
			}
			if write {
				issues = append(issues, r.issue(name, "Policies", fmt.Sprintf("worker role may also write %s", pair.id.Resource)))
			}
		}
	}

	for _, lt := range c.Templates() {
		if lt == nil {
			continue
		}
		want := c.Worker
		if lt.Role == k3s.RoleMaster {
			want = c.Master
		}
		name := lt.Template.Name()
		res, ok := in.Template.Resources[name]
		if !ok {
			continue
		}
		got := getAttTarget(dig(res.Properties, "LaunchTemplateData", "IamInstanceProfile", "Arn"))
		if got != want.Profile.Name() {
			issues = append(issues, r.issue(name, "LaunchTemplateData.IamInstanceProfile",
				fmt.Sprintf("%s template uses profile %q, want %q", lt.Role, got, want.Profile.Name())))
		}
	}

	return issues
}

func (r RoleDirection) issue(resource, path, msg string) Issue {
	return newIssue(r.ID(), SeverityError, resource, path, msg)
}

// UserDataPayload checks that every launch template embeds a non-empty boot
// script equal to its source file after a base64 round trip.
type UserDataPayload struct{}

func (r UserDataPayload) ID() string { return "K3S002" }
func (r UserDataPayload) Description() string {
	return "Launch templates embed their boot script byte-for-byte"
}

func (r UserDataPayload) Check(in *Input) []Issue {
	if in.Cluster == nil {
		return nil
	}

	var issues []Issue
	for _, lt := range in.Cluster.Templates() {
		if lt == nil {
			continue
		}
		name := lt.Template.Name()
		res, ok := in.Template.Resources[name]
		if !ok {
			issues = append(issues, r.issue(name, "launch template is missing from the template"))
			continue
		}

		encoded, _ := dig(res.Properties, "LaunchTemplateData", "UserData").(string)
		if encoded == "" {
			issues = append(issues, r.issue(name, "UserData is empty"))
			continue
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			issues = append(issues, r.issue(name, fmt.Sprintf("UserData is not valid base64: %v", err)))
			continue
		}
		if len(decoded) == 0 {
			issues = append(issues, r.issue(name, "UserData decodes to an empty script"))
			continue
		}

		// #nosec G304
		source, err := os.ReadFile(lt.UserDataPath)
		if err != nil {
			issues = append(issues, r.issue(name, fmt.Sprintf("cannot read boot script: %v", err)))
			continue
		}
		if !bytes.Equal(decoded, source) {
			issues = append(issues, r.issue(name, fmt.Sprintf("UserData does not match %s", lt.UserDataPath)))
		}
	}
	return issues
}

func (r UserDataPayload) issue(resource, msg string) Issue {
	return newIssue(r.ID(), SeverityError, resource, "LaunchTemplateData.UserData", msg)
}

// PoolBounds checks every autoscaling group for 0 <= MinSize <= MaxSize, with
// DesiredCapacity inside the bounds when set.
type PoolBounds struct{}

func (r PoolBounds) ID() string          { return "K3S003" }
func (r PoolBounds) Description() string { return "Scaling group bounds are non-negative and ordered" }

func (r PoolBounds) Check(in *Input) []Issue {
	var issues []Issue
	for _, name := range resourcesOfType(in.Template, "AWS::AutoScaling::AutoScalingGroup") {
		props := in.Template.Resources[name].Properties

		minSize, minErr := count(props["MinSize"])
		maxSize, maxErr := count(props["MaxSize"])
		if minErr != nil {
			issues = append(issues, r.issue(name, "MinSize", minErr.Error()))
		}
		if maxErr != nil {
			issues = append(issues, r.issue(name, "MaxSize", maxErr.Error()))
		}
		if minErr != nil || maxErr != nil {
			continue
		}
		if minSize > maxSize {
			issues = append(issues, r.issue(name, "MinSize", fmt.Sprintf("MinSize %d exceeds MaxSize %d", minSize, maxSize)))
		}

		if v, ok := props["DesiredCapacity"]; ok {
			desired, err := count(v)
			switch {
			case err != nil:
				issues = append(issues, r.issue(name, "DesiredCapacity", err.Error()))
			case desired < minSize || desired > maxSize:
				issues = append(issues, r.issue(name, "DesiredCapacity",
					fmt.Sprintf("DesiredCapacity %d outside [%d, %d]", desired, minSize, maxSize)))
			}
		}
	}
	return issues
}

func (r PoolBounds) issue(resource, path, msg string) Issue {
	return newIssue(r.ID(), SeverityError, resource, path, msg)
}

// SubnetsInSourceRange checks that every declared subnet is reachable from the
// node firewall's allowed source ranges.
type SubnetsInSourceRange struct{}

func (r SubnetsInSourceRange) ID() string { return "K3S004" }
func (r SubnetsInSourceRange) Description() string {
	return "Every subnet lies inside the firewall's source range"
}

func (r SubnetsInSourceRange) Check(in *Input) []Issue {
	groups := resourcesOfType(in.Template, "AWS::EC2::SecurityGroup")
	if in.Cluster != nil && in.Cluster.Firewall != nil {
		groups = []string{in.Cluster.Firewall.Group.Name()}
	}

	var sources []string
	for _, name := range groups {
		res, ok := in.Template.Resources[name]
		if !ok {
			continue
		}
		for _, rule := range asSlice(res.Properties["SecurityGroupIngress"]) {
			if cidr, ok := asMap(rule)["CidrIp"].(string); ok {
				sources = append(sources, cidr)
			}
		}
	}

	var issues []Issue
	for _, name := range resourcesOfType(in.Template, "AWS::EC2::Subnet") {
		cidr, ok := in.Template.Resources[name].Properties["CidrBlock"].(string)
		if !ok {
			// Computed blocks cannot be checked offline.
			continue
		}

		reachable := false
		for _, src := range sources {
			inside, err := config.CIDRContains(src, cidr)
			if err != nil {
				issues = append(issues, newIssue(r.ID(), SeverityError, name, "CidrBlock", err.Error()))
				break
			}
			if inside {
				reachable = true
				break
			}
		}
		if !reachable {
			issues = append(issues, newIssue(r.ID(), SeverityError, name, "CidrBlock",
				fmt.Sprintf("subnet %s is outside the firewall source ranges %v", cidr, sources)))
		}
	}
	return issues
}

// PlaceholderFirewall flags ingress rules that open the whole TCP port range
// or every protocol.
type PlaceholderFirewall struct{}

func (r PlaceholderFirewall) ID() string { return "K3S005" }
func (r PlaceholderFirewall) Description() string {
	return "The firewall still uses an allow-all placeholder rule"
}

func (r PlaceholderFirewall) Check(in *Input) []Issue {
	var issues []Issue
	for _, name := range resourcesOfType(in.Template, "AWS::EC2::SecurityGroup") {
		for i, rule := range asSlice(in.Template.Resources[name].Properties["SecurityGroupIngress"]) {
			m := asMap(rule)
			proto := fmt.Sprint(m["IpProtocol"])
			from, errFrom := count(m["FromPort"])
			to, errTo := count(m["ToPort"])

			var opened string
			switch {
			case proto == "-1":
				opened = "all traffic"
			case proto == "tcp" && errFrom == nil && errTo == nil && from == 0 && to == 65535:
				opened = "every TCP port"
			default:
				continue
			}
			issues = append(issues, newIssue(r.ID(), SeverityInfo, name, fmt.Sprintf("SecurityGroupIngress[%d]", i),
				fmt.Sprintf("ingress allows %s from %v; restrict to the ports k3s uses", opened, m["CidrIp"])))
		}
	}
	return issues
}

// namespaceActions collects Allow actions whose resource patterns cover
// resource. IAM wildcards match across path separators.
func namespaceActions(props map[string]any, resource string) []string {
	var actions []string
	for _, p := range asSlice(props["Policies"]) {
		doc := asMap(asMap(p)["PolicyDocument"])
		for _, s := range asSlice(doc["Statement"]) {
			stmt := asMap(s)
			if stmt["Effect"] != "Allow" {
				continue
			}
			covered := false
			for _, pattern := range stringList(stmt["Resource"]) {
				if match.Match(resource, pattern) {
					covered = true
					break
				}
			}
			if covered {
				actions = append(actions, stringList(stmt["Action"])...)
			}
		}
	}
	return actions
}

// grants reports whether any granted action pattern matches one of names.
// Action names are case-insensitive.
func grants(granted, names []string) bool {
	for _, pattern := range granted {
		pattern = strings.ToLower(pattern)
		for _, name := range names {
			if match.Match(strings.ToLower(name), pattern) {
				return true
			}
		}
	}
	return false
}

// count parses a non-negative integer from a template value. CloudFormation
// accepts both strings and numbers for autoscaling sizes.
func count(v any) (int, error) {
	var n int
	switch val := v.(type) {
	case string:
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", val)
		}
		n = parsed
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("%v is not an integer", val)
		}
		n = int(val)
	case int:
		n = val
	case int64:
		n = int(val)
	case nil:
		return 0, fmt.Errorf("value is missing")
	default:
		return 0, fmt.Errorf("%v is not a literal integer", val)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

func resourcesOfType(t *wetwire.Template, resourceType string) []string {
	var names []string
	for name, res := range t.Resources {
		if res.Type == resourceType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func dig(v any, path ...string) any {
	for _, key := range path {
		v = asMap(v)[key]
	}
	return v
}

func getAttTarget(v any) string {
	args, ok := asMap(v)["Fn::GetAtt"].([]any)
	if !ok || len(args) == 0 {
		return ""
	}
	name, _ := args[0].(string)
	return name
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func stringList(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	}
	return nil
}
