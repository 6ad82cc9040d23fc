package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Provider bundles the per-region AWS clients behind narrow interfaces
// so scanners stay mockable.
type Provider struct {
	ec2Client         EC2API
	elbClient         ELBAPI
	rdsClient         RDSAPI
	redshiftClient    RedshiftAPI
	eksClient         EKSAPI
	lambdaClient      LambdaAPI
	s3Client          S3API
	iamClient         IAMAPI
	route53Client     Route53API
	logsClient        CloudWatchLogsAPI
	cloudtrailClient  CloudTrailAPI
	kmsClient         KMSAPI
	dynamodbClient    DynamoDBAPI
	sqsClient         SQSAPI
	securityhubClient SecurityHubAPI

	region    string
	accountID string
}

// Options controls how the provider resolves credentials.
type Options struct {
	Region  string
	Profile string
}

// New creates a provider for one region, loading credentials from the
// default chain (env, shared config, instance role).
func New(ctx context.Context, opts Options) (*Provider, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	ec2Client := ec2.NewFromConfig(cfg)

	accountID, err := resolveAccountID(ctx, ec2Client)
	if err != nil {
		return nil, err
	}

	return &Provider{
		ec2Client:         ec2Client,
		elbClient:         elasticloadbalancingv2.NewFromConfig(cfg),
		rdsClient:         rds.NewFromConfig(cfg),
		redshiftClient:    redshift.NewFromConfig(cfg),
		eksClient:         eks.NewFromConfig(cfg),
		lambdaClient:      lambda.NewFromConfig(cfg),
		s3Client:          s3.NewFromConfig(cfg),
		iamClient:         iam.NewFromConfig(cfg),
		route53Client:     route53.NewFromConfig(cfg),
		logsClient:        cloudwatchlogs.NewFromConfig(cfg),
		cloudtrailClient:  cloudtrail.NewFromConfig(cfg),
		kmsClient:         kms.NewFromConfig(cfg),
		dynamodbClient:    dynamodb.NewFromConfig(cfg),
		sqsClient:         sqs.NewFromConfig(cfg),
		securityhubClient: securityhub.NewFromConfig(cfg),
		region:            opts.Region,
		accountID:         accountID,
	}, nil
}

// resolveAccountID pulls the account ID from EC2 account attributes.
// Works with plain EC2 permissions, no STS call needed.
func resolveAccountID(ctx context.Context, client EC2API) (string, error) {
	output, err := client.DescribeAccountAttributes(ctx, &ec2.DescribeAccountAttributesInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get account ID: %w", err)
	}

	for _, attr := range output.AccountAttributes {
		if aws.ToString(attr.AttributeName) == "account-id" && len(attr.AttributeValues) > 0 {
			return aws.ToString(attr.AttributeValues[0].AttributeValue), nil
		}
	}
	return "", fmt.Errorf("account-id attribute missing from DescribeAccountAttributes")
}

// Region returns the region this provider scans.
func (p *Provider) Region() string {
	return p.region
}

// AccountID returns the resolved account ID.
func (p *Provider) AccountID() string {
	return p.accountID
}

// ListRegions returns all regions enabled for the account.
func (p *Provider) ListRegions(ctx context.Context) ([]string, error) {
	output, err := p.ec2Client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	var regions []string
	for _, r := range output.Regions {
		regions = append(regions, aws.ToString(r.RegionName))
	}
	return regions, nil
}

// safeTimeValue converts *time.Time to time.Time, zero when nil.
func safeTimeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
