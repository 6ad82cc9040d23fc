package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vartija/vartija/types"
)

// CollectTableBackups gathers the point-in-time-recovery state of
// every DynamoDB table in the region.
func (p *Provider) CollectTableBackups(ctx context.Context) ([]types.TableBackupInfo, error) {
	var tables []types.TableBackupInfo
	paginator := dynamodb.NewListTablesPaginator(p.dynamodbClient, &dynamodb.ListTablesInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list DynamoDB tables: %w", err)
		}

		for _, name := range output.TableNames {
			backups, err := p.dynamodbClient.DescribeContinuousBackups(ctx, &dynamodb.DescribeContinuousBackupsInput{
				TableName: aws.String(name),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to describe backups for %s: %w", name, err)
			}

			tables = append(tables, types.TableBackupInfo{
				Name:        name,
				PITREnabled: pitrEnabled(backups.ContinuousBackupsDescription),
			})
		}
	}

	return tables, nil
}

// pitrEnabled digs the PITR status out of the backup description.
func pitrEnabled(desc *dynamodbtypes.ContinuousBackupsDescription) bool {
	if desc == nil || desc.PointInTimeRecoveryDescription == nil {
		return false
	}
	return desc.PointInTimeRecoveryDescription.PointInTimeRecoveryStatus == dynamodbtypes.PointInTimeRecoveryStatusEnabled
}
