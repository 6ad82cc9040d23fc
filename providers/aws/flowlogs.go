package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ActiveFlowLogVPCs returns the set of VPC IDs that already have an
// active flow log, so enablement stays idempotent.
func (p *Provider) ActiveFlowLogVPCs(ctx context.Context) (map[string]bool, error) {
	active := make(map[string]bool)

	paginator := ec2.NewDescribeFlowLogsPaginator(p.ec2Client, &ec2.DescribeFlowLogsInput{
		Filter: []ec2types.Filter{
			{
				Name:   aws.String("resource-type"),
				Values: []string{"VPC"},
			},
		},
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe flow logs: %w", err)
		}

		for _, fl := range output.FlowLogs {
			if aws.ToString(fl.FlowLogStatus) != "ACTIVE" {
				continue
			}
			active[aws.ToString(fl.ResourceId)] = true
		}
	}

	return active, nil
}

// EnsureLogGroup creates the CloudWatch Logs group for flow log
// delivery, tolerating one that already exists, and sets retention.
func (p *Provider) EnsureLogGroup(ctx context.Context, name string, retentionDays int32) error {
	_, err := p.logsClient.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil {
		var exists *logstypes.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return fmt.Errorf("failed to create log group %s: %w", name, err)
		}
	}

	_, err = p.logsClient.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(name),
		RetentionInDays: aws.Int32(retentionDays),
	})
	if err != nil {
		return fmt.Errorf("failed to set retention on %s: %w", name, err)
	}
	return nil
}

// CreateFlowLog enables a flow log on one VPC delivering to the given
// log group via the delivery role. Returns the flow log ID.
func (p *Provider) CreateFlowLog(ctx context.Context, vpcID, logGroup, roleARN string, trafficType ec2types.TrafficType) (string, error) {
	output, err := p.ec2Client.CreateFlowLogs(ctx, &ec2.CreateFlowLogsInput{
		ResourceIds:              []string{vpcID},
		ResourceType:             ec2types.FlowLogsResourceTypeVpc,
		TrafficType:              trafficType,
		LogDestinationType:       ec2types.LogDestinationTypeCloudWatchLogs,
		LogGroupName:             aws.String(logGroup),
		DeliverLogsPermissionArn: aws.String(roleARN),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create flow log for %s: %w", vpcID, err)
	}

	if len(output.Unsuccessful) > 0 {
		item := output.Unsuccessful[0]
		var msg string
		if item.Error != nil {
			msg = aws.ToString(item.Error.Message)
		}
		return "", fmt.Errorf("flow log creation unsuccessful for %s: %s", vpcID, msg)
	}

	if len(output.FlowLogIds) == 0 {
		return "", fmt.Errorf("flow log creation returned no ID for %s", vpcID)
	}
	return output.FlowLogIds[0], nil
}
