package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"

	"github.com/vartija/vartija/types"
)

// ListPublicEKSClusters discovers EKS clusters with a public API
// endpoint.
func (p *Provider) ListPublicEKSClusters(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := eks.NewListClustersPaginator(p.eksClient, &eks.ListClustersInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list EKS clusters: %w", err)
		}

		for _, name := range output.Clusters {
			detail, err := p.eksClient.DescribeCluster(ctx, &eks.DescribeClusterInput{
				Name: aws.String(name),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to describe EKS cluster %s: %w", name, err)
			}
			if detail.Cluster == nil || detail.Cluster.ResourcesVpcConfig == nil {
				continue
			}
			if !detail.Cluster.ResourcesVpcConfig.EndpointPublicAccess {
				continue
			}
			resources = append(resources, p.buildEKSResource(detail.Cluster))
		}
	}

	return resources, nil
}

// buildEKSResource converts an EKS cluster to a resource row.
func (p *Provider) buildEKSResource(cluster *ekstypes.Cluster) types.Resource {
	vpcConfig := cluster.ResourcesVpcConfig

	return types.Resource{
		Region:    p.region,
		VpcID:     aws.ToString(vpcConfig.VpcId),
		Type:      types.TypeEKSCluster,
		ID:        aws.ToString(cluster.Name),
		Name:      aws.ToString(cluster.Name),
		PublicDNS: strings.TrimPrefix(aws.ToString(cluster.Endpoint), "https://"),
		State:     string(cluster.Status),
		AccountID: p.accountID,
		Tags:      types.TagsFromMap(cluster.Tags),
		CreatedAt: safeTimeValue(cluster.CreatedAt),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			ClusterVersion:     aws.ToString(cluster.Version),
			PubliclyAccessible: true,
			PublicAccessCIDRs:  strings.Join(vpcConfig.PublicAccessCidrs, ","),
		},
	}
}
