package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vartija/vartija/types"
)

// ListExposedBuckets discovers S3 buckets whose public access block is
// missing or incomplete. S3 is a global namespace, so this runs once,
// not per region.
func (p *Provider) ListExposedBuckets(ctx context.Context) ([]types.Resource, error) {
	output, err := p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 buckets: %w", err)
	}

	var resources []types.Resource
	for _, bucket := range output.Buckets {
		name := aws.ToString(bucket.Name)

		block, err := p.s3Client.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{
			Bucket: bucket.Name,
		})
		switch {
		case isNoPublicAccessBlock(err):
			// no configuration at all means nothing is blocked
			resources = append(resources, p.buildBucketResource(bucket, "no public access block"))
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to get public access block for %s: %w", name, err)
		}

		if cfg := block.PublicAccessBlockConfiguration; cfg != nil && !publicAccessFullyBlocked(cfg) {
			resources = append(resources, p.buildBucketResource(bucket, "public access block incomplete"))
		}
	}

	return resources, nil
}

// publicAccessFullyBlocked reports whether all four block settings are
// on.
func publicAccessFullyBlocked(cfg *s3types.PublicAccessBlockConfiguration) bool {
	return aws.ToBool(cfg.BlockPublicAcls) &&
		aws.ToBool(cfg.BlockPublicPolicy) &&
		aws.ToBool(cfg.IgnorePublicAcls) &&
		aws.ToBool(cfg.RestrictPublicBuckets)
}

// isNoPublicAccessBlock matches the error S3 returns when a bucket has
// never had a public access block configured.
func isNoPublicAccessBlock(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchPublicAccessBlockConfiguration"
}

// buildBucketResource converts an S3 bucket to a resource row.
func (p *Provider) buildBucketResource(bucket s3types.Bucket, reason string) types.Resource {
	name := aws.ToString(bucket.Name)

	return types.Resource{
		Region:    p.region,
		Type:      types.TypeBucket,
		ID:        name,
		Name:      name,
		PublicDNS: name + ".s3.amazonaws.com",
		AccountID: p.accountID,
		CreatedAt: safeTimeValue(bucket.CreationDate),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			Description:        reason,
			PubliclyAccessible: true,
		},
	}
}
