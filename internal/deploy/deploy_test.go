package deploy

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCFN struct {
	stack     *types.Stack
	updateErr error
	created   *cloudformation.CreateStackInput
	updated   *cloudformation.UpdateStackInput
}

func (f *fakeCFN) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	if f.stack == nil {
		return nil, &smithy.GenericAPIError{
			Code:    "ValidationError",
			Message: "Stack with id " + aws.ToString(in.StackName) + " does not exist",
		}
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{*f.stack}}, nil
}

func (f *fakeCFN) CreateStack(_ context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.created = in
	f.stack = &types.Stack{
		StackName:   in.StackName,
		StackId:     aws.String("arn:aws:cloudformation:us-east-1:123456789012:stack/k3s/1"),
		StackStatus: types.StackStatusCreateComplete,
		Outputs: []types.Output{
			{OutputKey: aws.String("VpcId"), OutputValue: aws.String("vpc-123")},
		},
	}
	return &cloudformation.CreateStackOutput{StackId: f.stack.StackId}, nil
}

func (f *fakeCFN) UpdateStack(_ context.Context, in *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	f.updated = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.stack.StackStatus = types.StackStatusUpdateComplete
	return &cloudformation.UpdateStackOutput{StackId: f.stack.StackId}, nil
}

type fakeS3 struct {
	bucket string
	key    string
	body   string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	return &s3.PutObjectOutput{}, nil
}

type fakeSTS struct{}

func (fakeSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
}

func existingStack() *types.Stack {
	return &types.Stack{
		StackName:   aws.String("k3s"),
		StackId:     aws.String("arn:aws:cloudformation:us-east-1:123456789012:stack/k3s/1"),
		StackStatus: types.StackStatusCreateComplete,
	}
}

func TestDeploy_CreatesMissingStack(t *testing.T) {
	cfn := &fakeCFN{}
	d := NewWithClients(cfn, nil, fakeSTS{}, "us-east-1", nil)

	result, err := d.Deploy(context.Background(), []byte(`{"Resources":{}}`), Options{
		StackName:  "k3s",
		Parameters: map[string]string{"MachineImageId": "ami-123"},
		Tags:       map[string]string{"team": "platform", "env": "dev"},
		Wait:       true,
		Timeout:    time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, result.Action)
	assert.Equal(t, "123456789012", result.Account)
	assert.Equal(t, "CREATE_COMPLETE", result.Status)
	assert.Equal(t, "vpc-123", result.Outputs["VpcId"])

	require.NotNil(t, cfn.created)
	assert.Equal(t, `{"Resources":{}}`, aws.ToString(cfn.created.TemplateBody))
	assert.Nil(t, cfn.created.TemplateURL)
	assert.Equal(t, []types.Capability{types.CapabilityCapabilityIam}, cfn.created.Capabilities)
	require.Len(t, cfn.created.Parameters, 1)
	assert.Equal(t, "MachineImageId", aws.ToString(cfn.created.Parameters[0].ParameterKey))
	require.Len(t, cfn.created.Tags, 2)
	assert.Equal(t, "env", aws.ToString(cfn.created.Tags[0].Key))
}

func TestDeploy_UpdatesExistingStack(t *testing.T) {
	cfn := &fakeCFN{stack: existingStack()}
	d := NewWithClients(cfn, nil, nil, "us-east-1", nil)

	result, err := d.Deploy(context.Background(), []byte(`{}`), Options{StackName: "k3s"})
	require.NoError(t, err)

	assert.Equal(t, ActionUpdated, result.Action)
	assert.Equal(t, "UPDATE_COMPLETE", result.Status)
	assert.Nil(t, cfn.created)
	require.NotNil(t, cfn.updated)
}

func TestDeploy_NoUpdates(t *testing.T) {
	cfn := &fakeCFN{
		stack: existingStack(),
		updateErr: &smithy.GenericAPIError{
			Code:    "ValidationError",
			Message: "No updates are to be performed.",
		},
	}
	d := NewWithClients(cfn, nil, nil, "us-east-1", nil)

	result, err := d.Deploy(context.Background(), []byte(`{}`), Options{StackName: "k3s", Wait: true})
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, result.Action)
}

func TestDeploy_UpdateFails(t *testing.T) {
	cfn := &fakeCFN{
		stack:     existingStack(),
		updateErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
	}
	d := NewWithClients(cfn, nil, nil, "us-east-1", nil)

	_, err := d.Deploy(context.Background(), []byte(`{}`), Options{StackName: "k3s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update stack k3s")
}

func TestDeploy_RollbackComplete(t *testing.T) {
	stack := existingStack()
	stack.StackStatus = types.StackStatusRollbackComplete
	d := NewWithClients(&fakeCFN{stack: stack}, nil, nil, "us-east-1", nil)

	_, err := d.Deploy(context.Background(), []byte(`{}`), Options{StackName: "k3s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROLLBACK_COMPLETE")
}

func TestDeploy_StagesInS3(t *testing.T) {
	cfn := &fakeCFN{}
	bucket := &fakeS3{}
	d := NewWithClients(cfn, bucket, nil, "eu-west-1", nil)

	body := []byte(`{"Resources":{"Vpc":{}}}`)
	_, err := d.Deploy(context.Background(), body, Options{StackName: "k3s", Bucket: "artifacts", Prefix: "templates"})
	require.NoError(t, err)

	assert.Equal(t, "artifacts", bucket.bucket)
	assert.True(t, strings.HasPrefix(bucket.key, "templates/k3s-"), bucket.key)
	assert.Equal(t, string(body), bucket.body)

	require.NotNil(t, cfn.created)
	assert.Nil(t, cfn.created.TemplateBody)
	assert.Equal(t, "https://artifacts.s3.eu-west-1.amazonaws.com/"+bucket.key, aws.ToString(cfn.created.TemplateURL))
}

func TestDeploy_TooLargeWithoutBucket(t *testing.T) {
	cfn := &fakeCFN{}
	d := NewWithClients(cfn, nil, nil, "us-east-1", nil)

	body := []byte(strings.Repeat("x", MaxTemplateBodySize+1))
	_, err := d.Deploy(context.Background(), body, Options{StackName: "k3s"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTemplateTooLarge))
	assert.Nil(t, cfn.created)
}

func TestDeploy_RequiresStackName(t *testing.T) {
	d := NewWithClients(&fakeCFN{}, nil, nil, "us-east-1", nil)
	_, err := d.Deploy(context.Background(), []byte(`{}`), Options{})
	assert.Error(t, err)
}

func TestIsStackNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "missing stack",
			err:      &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id k3s does not exist"},
			expected: true,
		},
		{
			name:     "other validation error",
			err:      &smithy.GenericAPIError{Code: "ValidationError", Message: "Template format error"},
			expected: false,
		},
		{
			name:     "other code",
			err:      &smithy.GenericAPIError{Code: "Throttling", Message: "does not exist"},
			expected: false,
		},
		{
			name:     "not an API error",
			err:      errors.New("does not exist"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStackNotFound(tt.err); got != tt.expected {
				t.Errorf("isStackNotFound() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsNoUpdates(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "no updates",
			err:      &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."},
			expected: true,
		},
		{
			name:     "wrapped",
			err:      errors.Join(errors.New("update"), &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."}),
			expected: true,
		},
		{
			name:     "other",
			err:      &smithy.GenericAPIError{Code: "ValidationError", Message: "Parameter MachineImageId must be set"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNoUpdates(tt.err); got != tt.expected {
				t.Errorf("isNoUpdates() = %v, want %v", got, tt.expected)
			}
		})
	}
}
