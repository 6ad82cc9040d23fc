package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	shtypes "github.com/aws/aws-sdk-go-v2/service/securityhub/types"
)

// FindingsFilter narrows a Security Hub export. Empty slices mean no
// filtering on that dimension.
type FindingsFilter struct {
	SeverityLabels     []string
	WorkflowStatuses   []string
	ComplianceStatuses []string
	RecordStates       []string
	MaxResults         int
}

// GetSecurityHubFindings pages through GetFindings applying the
// filter. MaxResults zero means unlimited.
func (p *Provider) GetSecurityHubFindings(ctx context.Context, filter FindingsFilter) ([]shtypes.AwsSecurityFinding, error) {
	input := &securityhub.GetFindingsInput{
		Filters:    buildFindingFilters(filter),
		MaxResults: aws.Int32(100),
	}

	var findings []shtypes.AwsSecurityFinding
	paginator := securityhub.NewGetFindingsPaginator(p.securityhubClient, input)

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Security Hub findings: %w", err)
		}

		findings = append(findings, output.Findings...)
		if filter.MaxResults > 0 && len(findings) >= filter.MaxResults {
			findings = findings[:filter.MaxResults]
			break
		}
	}

	return findings, nil
}

// buildFindingFilters turns the flat filter into Security Hub's
// per-field equality filters.
func buildFindingFilters(filter FindingsFilter) *shtypes.AwsSecurityFindingFilters {
	filters := &shtypes.AwsSecurityFindingFilters{}
	empty := true

	if len(filter.SeverityLabels) > 0 {
		filters.SeverityLabel = equalityFilters(filter.SeverityLabels)
		empty = false
	}
	if len(filter.WorkflowStatuses) > 0 {
		filters.WorkflowStatus = equalityFilters(filter.WorkflowStatuses)
		empty = false
	}
	if len(filter.ComplianceStatuses) > 0 {
		filters.ComplianceStatus = equalityFilters(filter.ComplianceStatuses)
		empty = false
	}
	if len(filter.RecordStates) > 0 {
		filters.RecordState = equalityFilters(filter.RecordStates)
		empty = false
	}

	if empty {
		return nil
	}
	return filters
}

// equalityFilters builds one EQUALS string filter per value,
// uppercased the way Security Hub expects.
func equalityFilters(values []string) []shtypes.StringFilter {
	filters := make([]shtypes.StringFilter, 0, len(values))
	for _, value := range values {
		filters = append(filters, shtypes.StringFilter{
			Value:      aws.String(strings.ToUpper(value)),
			Comparison: shtypes.StringFilterComparisonEquals,
		})
	}
	return filters
}
