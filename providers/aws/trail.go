package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"

	"github.com/vartija/vartija/types"
)

// CollectTrails gathers CloudTrail trails and their logging state.
func (p *Provider) CollectTrails(ctx context.Context) ([]types.TrailInfo, error) {
	output, err := p.cloudtrailClient.DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe trails: %w", err)
	}

	var trails []types.TrailInfo
	for _, trail := range output.TrailList {
		logging := false
		status, err := p.cloudtrailClient.GetTrailStatus(ctx, &cloudtrail.GetTrailStatusInput{
			Name: trail.TrailARN,
		})
		if err == nil {
			logging = aws.ToBool(status.IsLogging)
		}

		trails = append(trails, types.TrailInfo{
			Name:        aws.ToString(trail.Name),
			HomeRegion:  aws.ToString(trail.HomeRegion),
			MultiRegion: aws.ToBool(trail.IsMultiRegionTrail),
			Logging:     logging,
		})
	}

	return trails, nil
}
