package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vartija/vartija/types"
)

// ListVPCs discovers all VPCs in the region.
func (p *Provider) ListVPCs(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := ec2.NewDescribeVpcsPaginator(p.ec2Client, &ec2.DescribeVpcsInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list VPCs: %w", err)
		}

		for _, vpc := range output.Vpcs {
			resources = append(resources, p.buildVPCResource(vpc))
		}
	}

	return resources, nil
}

// buildVPCResource converts an AWS VPC to a resource row.
func (p *Provider) buildVPCResource(vpc ec2types.Vpc) types.Resource {
	vpcID := aws.ToString(vpc.VpcId)

	return types.Resource{
		Region:    p.region,
		VpcID:     vpcID,
		VpcName:   nameFromEC2Tags(vpc.Tags, ""),
		Type:      types.TypeVPC,
		ID:        vpcID,
		Name:      nameFromEC2Tags(vpc.Tags, vpcID),
		State:     string(vpc.State),
		AccountID: p.accountID,
		Tags:      convertEC2Tags(vpc.Tags),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			Description: aws.ToString(vpc.CidrBlock),
		},
	}
}

// VPCNames maps VPC IDs to their Name tags so every inventory row can
// carry a human-readable VPC name.
func (p *Provider) VPCNames(ctx context.Context) (map[string]string, error) {
	vpcs, err := p.ListVPCs(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(vpcs))
	for _, vpc := range vpcs {
		names[vpc.VpcID] = vpc.VpcName
	}
	return names, nil
}
