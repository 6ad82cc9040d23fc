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

// ListElasticIPs discovers all Elastic IPs, associated or not.
func (p *Provider) ListElasticIPs(ctx context.Context) ([]types.Resource, error) {
	output, err := p.ec2Client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list Elastic IPs: %w", err)
	}

	var resources []types.Resource
	for _, eip := range output.Addresses {
		resources = append(resources, p.buildElasticIPResource(eip))
	}
	return resources, nil
}

// buildElasticIPResource converts an AWS address to a resource row.
// An address with no association and no instance is unassociated and
// still billed.
func (p *Provider) buildElasticIPResource(eip ec2types.Address) types.Resource {
	state := "associated"
	if isUnassociated(eip) {
		state = "unassociated"
	}

	var attachedTo string
	switch {
	case aws.ToString(eip.InstanceId) != "":
		attachedTo = aws.ToString(eip.InstanceId)
	case aws.ToString(eip.NetworkInterfaceId) != "":
		attachedTo = aws.ToString(eip.NetworkInterfaceId)
	}

	return types.Resource{
		Region:    p.region,
		Type:      types.TypeElasticIP,
		ID:        aws.ToString(eip.AllocationId),
		Name:      nameFromEC2Tags(eip.Tags, aws.ToString(eip.PublicIp)),
		PublicIP:  aws.ToString(eip.PublicIp),
		State:     state,
		AccountID: p.accountID,
		Tags:      convertEC2Tags(eip.Tags),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			AllocationID:       aws.ToString(eip.AllocationId),
			AssociationID:      aws.ToString(eip.AssociationId),
			AttachedTo:         attachedTo,
			NetworkInterfaceID: aws.ToString(eip.NetworkInterfaceId),
		},
	}
}

// isUnassociated reports whether an Elastic IP is allocated but not
// attached to anything.
func isUnassociated(eip ec2types.Address) bool {
	return aws.ToString(eip.AssociationId) == "" &&
		aws.ToString(eip.InstanceId) == "" &&
		aws.ToString(eip.NetworkInterfaceId) == ""
}

// ReleaseElasticIP releases one allocation. Callers gate this behind
// dry-run.
func (p *Provider) ReleaseElasticIP(ctx context.Context, allocationID string) error {
	_, err := p.ec2Client.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
		AllocationId: aws.String(allocationID),
	})
	if err != nil {
		return fmt.Errorf("failed to release Elastic IP %s: %w", allocationID, err)
	}
	return nil
}

// ListNATGateways discovers NAT gateways, which always carry a public IP.
func (p *Provider) ListNATGateways(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := ec2.NewDescribeNatGatewaysPaginator(p.ec2Client, &ec2.DescribeNatGatewaysInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list NAT gateways: %w", err)
		}

		for _, nat := range output.NatGateways {
			if nat.State == ec2types.NatGatewayStateDeleted {
				continue
			}
			resources = append(resources, p.buildNATGatewayResource(nat))
		}
	}

	return resources, nil
}

// buildNATGatewayResource converts an AWS NAT gateway to a resource row.
func (p *Provider) buildNATGatewayResource(nat ec2types.NatGateway) types.Resource {
	natID := aws.ToString(nat.NatGatewayId)

	var publicIP string
	for _, addr := range nat.NatGatewayAddresses {
		if aws.ToString(addr.PublicIp) != "" {
			publicIP = aws.ToString(addr.PublicIp)
			break
		}
	}

	return types.Resource{
		Region:    p.region,
		VpcID:     aws.ToString(nat.VpcId),
		Type:      types.TypeNATGateway,
		ID:        natID,
		Name:      nameFromEC2Tags(nat.Tags, natID),
		PublicIP:  publicIP,
		State:     string(nat.State),
		AccountID: p.accountID,
		Tags:      convertEC2Tags(nat.Tags),
		CreatedAt: safeTimeValue(nat.CreateTime),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			SubnetID: aws.ToString(nat.SubnetId),
		},
	}
}
