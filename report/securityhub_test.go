package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	shtypes "github.com/aws/aws-sdk-go-v2/service/securityhub/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFindings() []shtypes.AwsSecurityFinding {
	return []shtypes.AwsSecurityFinding{
		{
			Id:          aws.String("finding-1"),
			GeneratorId: aws.String("aws-foundational/v/1.0.0/S3.1"),
			Severity:    &shtypes.Severity{Label: shtypes.SeverityLabelCritical},
			Workflow:    &shtypes.Workflow{Status: shtypes.WorkflowStatusNew},
		},
		{
			Id:          aws.String("finding-2"),
			GeneratorId: aws.String("aws-foundational/v/1.0.0/S3.1"),
			Severity:    &shtypes.Severity{Label: shtypes.SeverityLabelHigh},
			Workflow:    &shtypes.Workflow{Status: shtypes.WorkflowStatusNew},
		},
		{
			Id:          aws.String("finding-3"),
			GeneratorId: aws.String("aws-foundational/v/1.0.0/IAM.4"),
			Severity:    &shtypes.Severity{Label: shtypes.SeverityLabelHigh},
			Workflow:    &shtypes.Workflow{Status: shtypes.WorkflowStatusResolved},
		},
	}
}

func TestBuildSecurityHubExport(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	export := BuildSecurityHubExport("eu-west-1", "123456789012", sampleFindings(), now)

	assert.Equal(t, "2025-06-01T12:00:00Z", export.Metadata.ExportDate)
	assert.Equal(t, "eu-west-1", export.Metadata.Region)
	assert.Equal(t, "123456789012", export.Metadata.AccountID)
	assert.Equal(t, 3, export.Metadata.TotalFindings)
	assert.Equal(t, 1, export.Metadata.SeveritySummary["CRITICAL"])
	assert.Equal(t, 2, export.Metadata.SeveritySummary["HIGH"])
	assert.Equal(t, 2, export.Metadata.WorkflowSummary["NEW"])
	assert.Equal(t, 1, export.Metadata.WorkflowSummary["RESOLVED"])
}

func TestWriteSecurityHubExport(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	export := BuildSecurityHubExport("eu-west-1", "", sampleFindings(), now)

	var buf bytes.Buffer
	require.NoError(t, WriteSecurityHubExport(&buf, export))

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "metadata")
	assert.Contains(t, decoded, "findings")
}

func TestTopFindingGenerators(t *testing.T) {
	generators := topFindingGenerators(sampleFindings(), 5)

	require.Len(t, generators, 2)
	assert.Equal(t, "aws-foundational/v/1.0.0/S3.1", generators[0].ID)
	assert.Equal(t, 2, generators[0].Count)
	assert.Equal(t, "aws-foundational/v/1.0.0/IAM.4", generators[1].ID)

	t.Run("limit applies", func(t *testing.T) {
		limited := topFindingGenerators(sampleFindings(), 1)
		require.Len(t, limited, 1)
		assert.Equal(t, 2, limited[0].Count)
	})
}

func TestWriteSecurityHubSummary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	export := BuildSecurityHubExport("eu-west-1", "", sampleFindings(), now)

	var buf bytes.Buffer
	WriteSecurityHubSummary(&buf, export, 5)

	out := buf.String()
	assert.Contains(t, out, "Exported 3 findings from eu-west-1")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "Top finding generators")
}
