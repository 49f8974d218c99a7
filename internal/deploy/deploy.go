// Package deploy submits a synthesized template to CloudFormation.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// MaxTemplateBodySize is the largest template CloudFormation accepts inline.
// Larger templates must be staged in S3.
const MaxTemplateBodySize = 51200

// DefaultTimeout bounds how long Deploy waits for the stack to settle.
const DefaultTimeout = 30 * time.Minute

// ErrTemplateTooLarge is returned when a template exceeds MaxTemplateBodySize
// and no bucket was given.
var ErrTemplateTooLarge = errors.New("template exceeds the inline size limit")

// CloudFormationAPI is the subset of the CloudFormation client used here.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
}

// S3API is the subset of the S3 client used to stage templates.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// STSAPI resolves the caller's account.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Action is what Deploy did to the stack.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// Options configures a deployment.
type Options struct {
	StackName string
	// Bucket stages the template in S3. Required above MaxTemplateBodySize.
	Bucket string
	Prefix string
	// Parameters override template parameter defaults.
	Parameters map[string]string
	Tags       map[string]string
	// Wait blocks until the stack reaches a terminal state.
	Wait    bool
	Timeout time.Duration
}

// Result describes a finished deployment.
type Result struct {
	StackName string
	StackID   string
	Account   string
	Action    Action
	Status    string
	Outputs   map[string]string
}

// Deployer creates and updates stacks.
type Deployer struct {
	cfn    CloudFormationAPI
	s3     S3API
	sts    STSAPI
	region string
	log    *zap.SugaredLogger
}

// New loads the default AWS configuration, optionally pinned to region and a
// shared config profile, and returns a Deployer using it.
func New(ctx context.Context, region, profile string, log *zap.SugaredLogger) (*Deployer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("no AWS region configured; set deploy.region or AWS_REGION")
	}

	return NewWithClients(
		cloudformation.NewFromConfig(cfg),
		s3.NewFromConfig(cfg),
		sts.NewFromConfig(cfg),
		cfg.Region,
		log,
	), nil
}

// NewWithClients returns a Deployer over explicit clients.
func NewWithClients(cfn CloudFormationAPI, s3Client S3API, stsClient STSAPI, region string, log *zap.SugaredLogger) *Deployer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Deployer{cfn: cfn, s3: s3Client, sts: stsClient, region: region, log: log}
}

// Deploy creates the stack if it does not exist, otherwise updates it.
func (d *Deployer) Deploy(ctx context.Context, body []byte, opts Options) (*Result, error) {
	if opts.StackName == "" {
		return nil, fmt.Errorf("stack name is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	result := &Result{StackName: opts.StackName, Outputs: map[string]string{}}

	if d.sts != nil {
		identity, err := d.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve caller identity: %w", err)
		}
		result.Account = aws.ToString(identity.Account)
		d.log.Infow("deploying", "stack", opts.StackName, "account", result.Account, "region", d.region)
	}

	source, err := d.templateSource(ctx, body, opts)
	if err != nil {
		return nil, err
	}

	existing, err := d.describe(ctx, opts.StackName)
	if err != nil {
		return nil, err
	}

	switch {
	case existing == nil:
		result.Action = ActionCreated
		result.StackID, err = d.create(ctx, source, opts)
	case existing.StackStatus == types.StackStatusRollbackComplete:
		return nil, fmt.Errorf("stack %s is in %s and must be deleted before it can be deployed again", opts.StackName, existing.StackStatus)
	default:
		result.Action = ActionUpdated
		result.StackID = aws.ToString(existing.StackId)
		var changed bool
		changed, err = d.update(ctx, source, opts)
		if err == nil && !changed {
			result.Action = ActionUnchanged
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.Wait && result.Action != ActionUnchanged {
		if err := d.wait(ctx, opts, result.Action); err != nil {
			return nil, err
		}
	}

	final, err := d.describe(ctx, opts.StackName)
	if err != nil {
		return nil, err
	}
	if final != nil {
		result.Status = string(final.StackStatus)
		if result.StackID == "" {
			result.StackID = aws.ToString(final.StackId)
		}
		for _, o := range final.Outputs {
			result.Outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
		}
	}

	d.log.Infow("deploy finished", "stack", opts.StackName, "action", result.Action, "status", result.Status)
	return result, nil
}

// templateSource is either an inline body or an S3 URL.
type templateSource struct {
	body string
	url  string
}

func (d *Deployer) templateSource(ctx context.Context, body []byte, opts Options) (templateSource, error) {
	if opts.Bucket == "" {
		if len(body) > MaxTemplateBodySize {
			return templateSource{}, fmt.Errorf("%w (%d > %d bytes): set deploy.bucket", ErrTemplateTooLarge, len(body), MaxTemplateBodySize)
		}
		return templateSource{body: string(body)}, nil
	}

	if d.s3 == nil {
		return templateSource{}, fmt.Errorf("no S3 client to stage the template")
	}

	key := path.Join(opts.Prefix, fmt.Sprintf("%s-%d.json", opts.StackName, time.Now().UTC().Unix()))
	_, err := d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return templateSource{}, fmt.Errorf("failed to put template %s in bucket %s: %w", key, opts.Bucket, err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", opts.Bucket, d.region, key)
	d.log.Debugw("staged template", "url", url, "bytes", len(body))
	return templateSource{url: url}, nil
}

func (d *Deployer) describe(ctx context.Context, name string) (*types.Stack, error) {
	out, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err != nil {
		if isStackNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe stack %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return &out.Stacks[0], nil
}

func (d *Deployer) create(ctx context.Context, src templateSource, opts Options) (string, error) {
	input := &cloudformation.CreateStackInput{
		StackName:    aws.String(opts.StackName),
		Capabilities: []types.Capability{types.CapabilityCapabilityIam},
		Parameters:   parameters(opts.Parameters),
		Tags:         tags(opts.Tags),
	}
	if src.url != "" {
		input.TemplateURL = aws.String(src.url)
	} else {
		input.TemplateBody = aws.String(src.body)
	}

	d.log.Infow("creating stack", "stack", opts.StackName)
	out, err := d.cfn.CreateStack(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to create stack %s: %w", opts.StackName, err)
	}
	return aws.ToString(out.StackId), nil
}

// update reports false when CloudFormation found nothing to change.
func (d *Deployer) update(ctx context.Context, src templateSource, opts Options) (bool, error) {
	input := &cloudformation.UpdateStackInput{
		StackName:    aws.String(opts.StackName),
		Capabilities: []types.Capability{types.CapabilityCapabilityIam},
		Parameters:   parameters(opts.Parameters),
		Tags:         tags(opts.Tags),
	}
	if src.url != "" {
		input.TemplateURL = aws.String(src.url)
	} else {
		input.TemplateBody = aws.String(src.body)
	}

	d.log.Infow("updating stack", "stack", opts.StackName)
	if _, err := d.cfn.UpdateStack(ctx, input); err != nil {
		if isNoUpdates(err) {
			d.log.Infow("stack is up to date", "stack", opts.StackName)
			return false, nil
		}
		return false, fmt.Errorf("failed to update stack %s: %w", opts.StackName, err)
	}
	return true, nil
}

func (d *Deployer) wait(ctx context.Context, opts Options, action Action) error {
	input := &cloudformation.DescribeStacksInput{StackName: aws.String(opts.StackName)}
	d.log.Infow("waiting for stack", "stack", opts.StackName, "timeout", opts.Timeout)

	var err error
	switch action {
	case ActionCreated:
		err = cloudformation.NewStackCreateCompleteWaiter(d.cfn).Wait(ctx, input, opts.Timeout)
	case ActionUpdated:
		err = cloudformation.NewStackUpdateCompleteWaiter(d.cfn).Wait(ctx, input, opts.Timeout)
	}
	if err != nil {
		return fmt.Errorf("stack %s did not complete: %w", opts.StackName, err)
	}
	return nil
}

func parameters(values map[string]string) []types.Parameter {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []types.Parameter
	for _, k := range keys {
		out = append(out, types.Parameter{ParameterKey: aws.String(k), ParameterValue: aws.String(values[k])})
	}
	return out
}

func tags(values map[string]string) []types.Tag {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []types.Tag
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(values[k])})
	}
	return out
}

// isStackNotFound reports the ValidationError DescribeStacks returns for an
// unknown stack.
func isStackNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist")
	}
	return false
}

// isNoUpdates reports the ValidationError UpdateStack returns when the
// template and parameters are unchanged.
func isNoUpdates(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
	}
	return false
}
