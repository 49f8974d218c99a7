package template

import (
	"fmt"
	"testing"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/intrinsics"
	"github.com/lex00/wetwire-k3s-go/resources/ec2"
)

// BenchmarkBuild builds a VPC with a growing number of subnets.
func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{10, 50, 100, 200} {
		b.Run(fmt.Sprintf("subnets_%d", size), func(b *testing.B) {
			builder := subnetBuilder(size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := builder.Build(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEncode(b *testing.B) {
	tmpl, err := subnetBuilder(50).Build()
	if err != nil {
		b.Fatal(err)
	}

	for _, format := range []string{"json", "yaml"} {
		b.Run(format, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Encode(tmpl, format); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkOrder orders a chain of route table associations.
func BenchmarkOrder(b *testing.B) {
	for _, size := range []int{20, 50, 100} {
		b.Run(fmt.Sprintf("chain_%d", size), func(b *testing.B) {
			resources := make(map[string]wetwire.DiscoveredResource, size)
			for i := 0; i < size; i++ {
				name := fmt.Sprintf("Association%d", i)
				res := wetwire.DiscoveredResource{Name: name}
				if i > 0 {
					res.Dependencies = []string{fmt.Sprintf("Association%d", i-1)}
				}
				resources[name] = res
			}
			builder := NewBuilder(resources)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := builder.Order(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func subnetBuilder(count int) *Builder {
	resources := map[string]wetwire.DiscoveredResource{"Vpc": {Name: "Vpc"}}
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("Subnet%d", i)
		resources[name] = wetwire.DiscoveredResource{Name: name, Dependencies: []string{"Vpc"}}
	}

	builder := NewBuilder(resources)
	builder.SetValue("Vpc", ec2.VPC{CidrBlock: "10.0.0.0/16"})
	for i := 0; i < count; i++ {
		builder.SetValue(fmt.Sprintf("Subnet%d", i), ec2.Subnet{
			VpcId:     intrinsics.Ref{LogicalName: "Vpc"},
			CidrBlock: fmt.Sprintf("10.0.%d.0/24", i),
			Tags:      []any{intrinsics.Tag{Key: "Name", Value: fmt.Sprintf("subnet-%d", i)}},
		})
	}
	return builder
}
