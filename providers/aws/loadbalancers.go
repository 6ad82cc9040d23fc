package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/vartija/vartija/types"
)

// ListPublicLoadBalancers discovers internet-facing ELBv2 load
// balancers (ALB and NLB).
func (p *Provider) ListPublicLoadBalancers(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(p.elbClient, &elasticloadbalancingv2.DescribeLoadBalancersInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe load balancers: %w", err)
		}

		for _, lb := range output.LoadBalancers {
			if lb.Scheme != elbv2types.LoadBalancerSchemeEnumInternetFacing {
				continue
			}
			resources = append(resources, p.buildLoadBalancerResource(lb))
		}
	}

	return resources, nil
}

// buildLoadBalancerResource converts an ELBv2 load balancer to a
// resource row.
func (p *Provider) buildLoadBalancerResource(lb elbv2types.LoadBalancer) types.Resource {
	var state string
	if lb.State != nil {
		state = string(lb.State.Code)
	}

	return types.Resource{
		Region:    p.region,
		VpcID:     aws.ToString(lb.VpcId),
		Type:      types.TypeLoadBalancer,
		ID:        aws.ToString(lb.LoadBalancerArn),
		Name:      aws.ToString(lb.LoadBalancerName),
		PublicDNS: aws.ToString(lb.DNSName),
		State:     state,
		AccountID: p.accountID,
		CreatedAt: safeTimeValue(lb.CreatedTime),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			Scheme:           string(lb.Scheme),
			LoadBalancerType: string(lb.Type),
		},
	}
}
