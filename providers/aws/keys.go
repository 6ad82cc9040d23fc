package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/vartija/vartija/types"
)

// CollectKeys gathers customer-managed KMS keys and their rotation
// state. AWS-managed keys rotate on their own and are skipped.
func (p *Provider) CollectKeys(ctx context.Context) ([]types.KeyInfo, error) {
	var keys []types.KeyInfo
	paginator := kms.NewListKeysPaginator(p.kmsClient, &kms.ListKeysInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list KMS keys: %w", err)
		}

		for _, entry := range output.Keys {
			detail, err := p.kmsClient.DescribeKey(ctx, &kms.DescribeKeyInput{
				KeyId: entry.KeyId,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to describe key %s: %w", aws.ToString(entry.KeyId), err)
			}

			meta := detail.KeyMetadata
			if meta == nil || meta.KeyManager != kmstypes.KeyManagerTypeCustomer {
				continue
			}

			rotation := false
			status, err := p.kmsClient.GetKeyRotationStatus(ctx, &kms.GetKeyRotationStatusInput{
				KeyId: entry.KeyId,
			})
			if err == nil {
				rotation = status.KeyRotationEnabled
			}

			keys = append(keys, types.KeyInfo{
				ID:              aws.ToString(meta.KeyId),
				ARN:             aws.ToString(meta.Arn),
				State:           string(meta.KeyState),
				RotationEnabled: rotation,
			})
		}
	}

	return keys, nil
}
