package k3s

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/lex00/wetwire-k3s-go/intrinsics"
	"github.com/lex00/wetwire-k3s-go/resources/ec2"
)

// LaunchSpec describes one role's boot specification.
type LaunchSpec struct {
	// Name is the logical ID of the launch template.
	Name string
	// Role tags instances, e.g. master or agent.
	Role string

	Image        intrinsics.Parameter
	InstanceType string
	DeviceName   string
	VolumeSize   int
	VolumeType   string

	Identity *Identity
	Firewall *Firewall

	// UserDataPath is read once, at declaration time.
	UserDataPath string
}

// LaunchTemplate is a declared launch template and the payload it embeds.
type LaunchTemplate struct {
	Template Handle
	Role     string
	Identity *Identity

	UserDataPath string
	// UserData is the base64 payload written into the template.
	UserData string
}

// ID returns a Ref to the launch template ID.
func (lt *LaunchTemplate) ID() intrinsics.Ref {
	return lt.Template.Ref()
}

// LatestVersion returns the LatestVersionNumber attribute.
func (lt *LaunchTemplate) LatestVersion() intrinsics.GetAtt {
	return lt.Template.Attr("LatestVersionNumber")
}

// EncodeUserData reads a boot script and returns its raw bytes base64-encoded.
func EncodeUserData(path string) (string, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUserDataMissing, path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrUserDataMissing, path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// NewLaunchTemplate declares a launch template for one node role. Every call
// builds its own template data; nothing is shared between roles.
func NewLaunchTemplate(stack *Stack, spec LaunchSpec) (*LaunchTemplate, error) {
	if spec.Identity == nil || spec.Firewall == nil {
		return nil, fmt.Errorf("launch template %s: identity and firewall are required", spec.Name)
	}

	payload, err := EncodeUserData(spec.UserDataPath)
	if err != nil {
		return nil, fmt.Errorf("launch template %s: %w", spec.Name, err)
	}

	roleTags := []any{
		intrinsics.Tag{Key: "Name", Value: intrinsics.Sub{String: "${AWS::StackName}-" + spec.Role}},
		intrinsics.Tag{Key: "k3s:role", Value: spec.Role},
	}

	data := &ec2.LaunchTemplate_LaunchTemplateData{
		ImageId:      spec.Image,
		InstanceType: spec.InstanceType,
		IamInstanceProfile: &ec2.LaunchTemplate_IamInstanceProfile{
			Arn: spec.Identity.Profile.Attr("Arn"),
		},
		NetworkInterfaces: []ec2.LaunchTemplate_NetworkInterface{
			{
				DeviceIndex:              intrinsics.Int(0),
				AssociatePublicIpAddress: intrinsics.Bool(true),
				DeleteOnTermination:      intrinsics.Bool(true),
				Groups:                   []any{spec.Firewall.GroupID()},
			},
		},
		BlockDeviceMappings: []ec2.LaunchTemplate_BlockDeviceMapping{
			{
				DeviceName: spec.DeviceName,
				Ebs: &ec2.LaunchTemplate_Ebs{
					VolumeSize:          spec.VolumeSize,
					VolumeType:          spec.VolumeType,
					DeleteOnTermination: intrinsics.Bool(true),
				},
			},
		},
		UserData: payload,
		TagSpecifications: []any{
			ec2.LaunchTemplate_TagSpecification{ResourceType: "instance", Tags: roleTags},
		},
	}

	h, err := stack.Add(spec.Name, &ec2.LaunchTemplate{
		LaunchTemplateData: data,
	})
	if err != nil {
		return nil, err
	}

	return &LaunchTemplate{
		Template:     h,
		Role:         spec.Role,
		Identity:     spec.Identity,
		UserDataPath: spec.UserDataPath,
		UserData:     payload,
	}, nil
}
