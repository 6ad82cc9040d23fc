package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	redshifttypes "github.com/aws/aws-sdk-go-v2/service/redshift/types"

	"github.com/vartija/vartija/types"
)

// ListPublicRDSInstances discovers RDS instances flagged publicly
// accessible.
func (p *Provider) ListPublicRDSInstances(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := rds.NewDescribeDBInstancesPaginator(p.rdsClient, &rds.DescribeDBInstancesInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe RDS instances: %w", err)
		}

		for _, instance := range output.DBInstances {
			if !aws.ToBool(instance.PubliclyAccessible) {
				continue
			}
			resources = append(resources, p.buildRDSResource(instance))
		}
	}

	return resources, nil
}

// buildRDSResource converts an RDS instance to a resource row.
func (p *Provider) buildRDSResource(instance rdstypes.DBInstance) types.Resource {
	var endpoint string
	var port int32
	if instance.Endpoint != nil {
		endpoint = aws.ToString(instance.Endpoint.Address)
		port = aws.ToInt32(instance.Endpoint.Port)
	}

	var vpcID string
	if instance.DBSubnetGroup != nil {
		vpcID = aws.ToString(instance.DBSubnetGroup.VpcId)
	}

	return types.Resource{
		Region:    p.region,
		VpcID:     vpcID,
		Type:      types.TypeRDSInstance,
		ID:        aws.ToString(instance.DBInstanceIdentifier),
		Name:      aws.ToString(instance.DBInstanceIdentifier),
		PublicDNS: endpoint,
		State:     aws.ToString(instance.DBInstanceStatus),
		AccountID: p.accountID,
		Tags:      convertRDSTags(instance.TagList),
		CreatedAt: safeTimeValue(instance.InstanceCreateTime),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			Engine:             aws.ToString(instance.Engine),
			Endpoint:           endpoint,
			Port:               port,
			PubliclyAccessible: true,
			Encrypted:          aws.ToBool(instance.StorageEncrypted),
		},
	}
}

// ListPublicRedshiftClusters discovers Redshift clusters flagged
// publicly accessible.
func (p *Provider) ListPublicRedshiftClusters(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := redshift.NewDescribeClustersPaginator(p.redshiftClient, &redshift.DescribeClustersInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe Redshift clusters: %w", err)
		}

		for _, cluster := range output.Clusters {
			if !aws.ToBool(cluster.PubliclyAccessible) {
				continue
			}
			resources = append(resources, p.buildRedshiftResource(cluster))
		}
	}

	return resources, nil
}

// buildRedshiftResource converts a Redshift cluster to a resource row.
func (p *Provider) buildRedshiftResource(cluster redshifttypes.Cluster) types.Resource {
	var endpoint string
	var port int32
	if cluster.Endpoint != nil {
		endpoint = aws.ToString(cluster.Endpoint.Address)
		port = aws.ToInt32(cluster.Endpoint.Port)
	}

	return types.Resource{
		Region:    p.region,
		VpcID:     aws.ToString(cluster.VpcId),
		Type:      types.TypeRedshift,
		ID:        aws.ToString(cluster.ClusterIdentifier),
		Name:      aws.ToString(cluster.ClusterIdentifier),
		PublicDNS: endpoint,
		State:     aws.ToString(cluster.ClusterStatus),
		AccountID: p.accountID,
		CreatedAt: safeTimeValue(cluster.ClusterCreateTime),
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			Engine:             "redshift",
			Endpoint:           endpoint,
			Port:               port,
			PubliclyAccessible: true,
			Encrypted:          aws.ToBool(cluster.Encrypted),
		},
	}
}
