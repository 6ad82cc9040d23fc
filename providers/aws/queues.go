package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/vartija/vartija/types"
)

// CollectQueues gathers SQS queues and whether their resource policy
// grants access to everyone.
func (p *Provider) CollectQueues(ctx context.Context) ([]types.QueueInfo, error) {
	var queues []types.QueueInfo
	paginator := sqs.NewListQueuesPaginator(p.sqsClient, &sqs.ListQueuesInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list SQS queues: %w", err)
		}

		for _, url := range output.QueueUrls {
			attrs, err := p.sqsClient.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
				QueueUrl:       &url,
				AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNamePolicy},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get attributes for %s: %w", url, err)
			}

			queues = append(queues, types.QueueInfo{
				URL:          url,
				PublicPolicy: policyAllowsEveryone(attrs.Attributes[string(sqstypes.QueueAttributeNamePolicy)]),
			})
		}
	}

	return queues, nil
}

// policyAllowsEveryone reports whether any Allow statement names the
// wildcard principal.
func policyAllowsEveryone(policyJSON string) bool {
	if policyJSON == "" {
		return false
	}

	var policy struct {
		Statement []struct {
			Effect    string          `json:"Effect"`
			Principal json.RawMessage `json:"Principal"`
		} `json:"Statement"`
	}
	if err := json.Unmarshal([]byte(policyJSON), &policy); err != nil {
		return false
	}

	for _, stmt := range policy.Statement {
		if stmt.Effect != "Allow" {
			continue
		}
		if principalIsWildcard(stmt.Principal) {
			return true
		}
	}
	return false
}

// principalIsWildcard matches "*" and {"AWS": "*"} principal forms.
func principalIsWildcard(raw json.RawMessage) bool {
	var star string
	if err := json.Unmarshal(raw, &star); err == nil {
		return star == "*"
	}

	var block struct {
		AWS json.RawMessage `json:"AWS"`
	}
	if err := json.Unmarshal(raw, &block); err != nil || block.AWS == nil {
		return false
	}

	if err := json.Unmarshal(block.AWS, &star); err == nil {
		return star == "*"
	}

	var list []string
	if err := json.Unmarshal(block.AWS, &list); err == nil {
		for _, principal := range list {
			if principal == "*" {
				return true
			}
		}
	}
	return false
}
