// Package graph generates DOT and Mermaid format dependency graphs from declared resources.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/intrinsics"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from declared resources.
type Generator struct {
	// IncludeParameters includes parameter references in the graph.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(resources map[string]wetwire.DiscoveredResource, parameters map[string]intrinsics.Parameter, w io.Writer) error {
	graph := g.buildGraph(resources, parameters)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(resources map[string]wetwire.DiscoveredResource, parameters map[string]intrinsics.Parameter) (string, error) {
	var sb strings.Builder
	if err := g.Generate(resources, parameters, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(resources map[string]wetwire.DiscoveredResource, parameters map[string]intrinsics.Parameter) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	getAttRefs := buildGetAttSet(resources)

	if g.ClusterByType {
		g.addClusteredNodes(graph, resources)
	} else {
		g.addNodes(graph, resources)
	}

	if g.IncludeParameters {
		for _, name := range sortedKeys(parameters) {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
		}
	}

	for _, name := range sortedKeys(resources) {
		res := resources[name]
		for _, dep := range res.Dependencies {
			_, isResource := resources[dep]
			_, isParam := parameters[dep]
			if isParam && !g.IncludeParameters {
				continue
			}
			if !isResource && !isParam {
				continue
			}

			e := graph.Edge(graph.Node(name), graph.Node(dep))
			if getAttRefs[name+"->"+dep] {
				e.Attr("color", "blue")
			}
		}

		// Ordering-only dependencies
		for _, dep := range res.DependsOn {
			if _, ok := resources[dep]; !ok {
				continue
			}
			e := graph.Edge(graph.Node(name), graph.Node(dep))
			e.Attr("style", "dashed")
		}
	}

	return graph
}

// buildGetAttSet creates a set of edges that are GetAtt references.
func buildGetAttSet(resources map[string]wetwire.DiscoveredResource) map[string]bool {
	getAttRefs := make(map[string]bool)
	for name, res := range resources {
		for _, usage := range res.AttrRefUsages {
			getAttRefs[name+"->"+usage.ResourceName] = true
		}
	}
	return getAttRefs
}

func (g *Generator) addNodes(graph *dot.Graph, resources map[string]wetwire.DiscoveredResource) {
	for _, name := range sortedKeys(resources) {
		graph.Node(name).Label(nodeLabel(name, resources[name]))
	}
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, resources map[string]wetwire.DiscoveredResource) {
	serviceResources := make(map[string][]string)
	for _, name := range sortedKeys(resources) {
		service := extractService(cfType(resources[name]))
		serviceResources[service] = append(serviceResources[service], name)
	}

	for _, service := range sortedKeys(serviceResources) {
		names := serviceResources[service]
		if len(names) == 1 {
			graph.Node(names[0]).Label(nodeLabel(names[0], resources[names[0]]))
			continue
		}

		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range names {
			cluster.Node(name).Label(nodeLabel(name, resources[name]))
		}
	}
}

func nodeLabel(name string, res wetwire.DiscoveredResource) string {
	return name + "\\n[" + cfType(res) + "]"
}

func cfType(res wetwire.DiscoveredResource) string {
	if res.ResourceType != "" {
		return res.ResourceType
	}
	return goTypeToCFType(res.Type)
}

// extractService extracts the service name from a CloudFormation type.
// e.g., "AWS::EC2::VPC" -> "EC2"
func extractService(resourceType string) string {
	parts := strings.Split(resourceType, "::")
	if len(parts) == 3 {
		return strings.ToUpper(parts[1])
	}
	return "Other"
}

// goTypeToCFType converts a Go type to CloudFormation type format.
// e.g., "ec2.VPC" -> "AWS::EC2::VPC"
func goTypeToCFType(goType string) string {
	parts := strings.Split(goType, ".")
	if len(parts) == 2 && parts[0] != "" {
		return "AWS::" + strings.ToUpper(parts[0]) + "::" + parts[1]
	}
	return goType
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
