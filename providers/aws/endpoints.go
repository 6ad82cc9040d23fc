package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// GatewayService names the AWS services reachable through gateway
// endpoints.
const (
	GatewayServiceS3       = "s3"
	GatewayServiceDynamoDB = "dynamodb"
)

// GatewayServiceName builds the regional endpoint service name.
func (p *Provider) GatewayServiceName(service string) string {
	return fmt.Sprintf("com.amazonaws.%s.%s", p.region, service)
}

// ExistingGatewayEndpoints returns the service names of gateway
// endpoints already present in a VPC.
func (p *Provider) ExistingGatewayEndpoints(ctx context.Context, vpcID string) (map[string]bool, error) {
	existing := make(map[string]bool)

	paginator := ec2.NewDescribeVpcEndpointsPaginator(p.ec2Client, &ec2.DescribeVpcEndpointsInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{vpcID},
			},
			{
				Name:   aws.String("vpc-endpoint-type"),
				Values: []string{"Gateway"},
			},
		},
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe VPC endpoints for %s: %w", vpcID, err)
		}

		for _, endpoint := range output.VpcEndpoints {
			if endpoint.State == ec2types.StateDeleted || endpoint.State == ec2types.StateDeleting {
				continue
			}
			existing[aws.ToString(endpoint.ServiceName)] = true
		}
	}

	return existing, nil
}

// RouteTableIDs returns the route tables of a VPC. Gateway endpoints
// attach to route tables, not subnets.
func (p *Provider) RouteTableIDs(ctx context.Context, vpcID string) ([]string, error) {
	var ids []string

	paginator := ec2.NewDescribeRouteTablesPaginator(p.ec2Client, &ec2.DescribeRouteTablesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{vpcID},
			},
		},
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe route tables for %s: %w", vpcID, err)
		}

		for _, table := range output.RouteTables {
			ids = append(ids, aws.ToString(table.RouteTableId))
		}
	}

	return ids, nil
}

// CreateGatewayEndpoint creates one gateway endpoint wired to the
// given route tables. Returns the endpoint ID.
func (p *Provider) CreateGatewayEndpoint(ctx context.Context, vpcID, serviceName string, routeTableIDs []string) (string, error) {
	output, err := p.ec2Client.CreateVpcEndpoint(ctx, &ec2.CreateVpcEndpointInput{
		VpcId:           aws.String(vpcID),
		ServiceName:     aws.String(serviceName),
		VpcEndpointType: ec2types.VpcEndpointTypeGateway,
		RouteTableIds:   routeTableIDs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create endpoint %s in %s: %w", serviceName, vpcID, err)
	}

	if output.VpcEndpoint == nil {
		return "", fmt.Errorf("endpoint creation returned no endpoint for %s", vpcID)
	}
	return aws.ToString(output.VpcEndpoint.VpcEndpointId), nil
}
