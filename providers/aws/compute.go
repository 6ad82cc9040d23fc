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

// ListPublicInstances discovers EC2 instances holding a public IP or
// public DNS name. Stopped instances drop their public addresses, so
// only running instances show up here.
func (p *Provider) ListPublicInstances(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running"},
			},
		},
	}

	paginator := ec2.NewDescribeInstancesPaginator(p.ec2Client, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe EC2 instances: %w", err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				if aws.ToString(instance.PublicIpAddress) == "" && aws.ToString(instance.PublicDnsName) == "" {
					continue
				}
				resources = append(resources, p.buildInstanceResource(instance))
			}
		}
	}

	return resources, nil
}

// buildInstanceResource converts an AWS instance to a resource row.
func (p *Provider) buildInstanceResource(instance ec2types.Instance) types.Resource {
	instanceID := aws.ToString(instance.InstanceId)

	var az string
	if instance.Placement != nil {
		az = aws.ToString(instance.Placement.AvailabilityZone)
	}

	var state string
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	return types.Resource{
		Region:    p.region,
		VpcID:     aws.ToString(instance.VpcId),
		Type:      types.TypeInstance,
		ID:        instanceID,
		Name:      nameFromEC2Tags(instance.Tags, instanceID),
		PublicIP:  aws.ToString(instance.PublicIpAddress),
		PublicDNS: aws.ToString(instance.PublicDnsName),
		State:     state,
		AccountID: p.accountID,
		Tags:      convertEC2Tags(instance.Tags),
		CreatedAt: safeTimeValue(instance.LaunchTime),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			InstanceType:     string(instance.InstanceType),
			AvailabilityZone: az,
			PrivateIP:        aws.ToString(instance.PrivateIpAddress),
			SubnetID:         aws.ToString(instance.SubnetId),
		},
	}
}
