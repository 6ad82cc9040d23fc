package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	shtypes "github.com/aws/aws-sdk-go-v2/service/securityhub/types"
)

// SecurityHubExport is the JSON document the findings command writes:
// a metadata block followed by the raw findings.
type SecurityHubExport struct {
	Metadata SecurityHubMetadata          `json:"metadata"`
	Findings []shtypes.AwsSecurityFinding `json:"findings"`
}

// SecurityHubMetadata summarizes one export run.
type SecurityHubMetadata struct {
	ExportDate      string         `json:"export_date"`
	Region          string         `json:"region"`
	AccountID       string         `json:"account_id,omitempty"`
	TotalFindings   int            `json:"total_findings"`
	SeveritySummary map[string]int `json:"severity_summary"`
	WorkflowSummary map[string]int `json:"workflow_summary"`
}

// BuildSecurityHubExport assembles the export document.
func BuildSecurityHubExport(region, accountID string, findings []shtypes.AwsSecurityFinding, now time.Time) SecurityHubExport {
	severities := make(map[string]int)
	workflows := make(map[string]int)

	for _, finding := range findings {
		if finding.Severity != nil {
			severities[string(finding.Severity.Label)]++
		}
		if finding.Workflow != nil {
			workflows[string(finding.Workflow.Status)]++
		}
	}

	return SecurityHubExport{
		Metadata: SecurityHubMetadata{
			ExportDate:      now.UTC().Format(time.RFC3339),
			Region:          region,
			AccountID:       accountID,
			TotalFindings:   len(findings),
			SeveritySummary: severities,
			WorkflowSummary: workflows,
		},
		Findings: findings,
	}
}

// WriteSecurityHubExport writes the export document as JSON.
func WriteSecurityHubExport(w io.Writer, export SecurityHubExport) error {
	return writeJSON(w, export)
}

// WriteSecurityHubSummary prints a human summary of an export: totals
// per severity and workflow status, plus the noisiest finding
// generators.
func WriteSecurityHubSummary(w io.Writer, export SecurityHubExport, topGenerators int) {
	fmt.Fprintf(w, "Exported %d findings from %s\n", export.Metadata.TotalFindings, export.Metadata.Region)

	fmt.Fprintln(w, "\nBy severity:")
	writeCountMap(w, export.Metadata.SeveritySummary)

	fmt.Fprintln(w, "\nBy workflow status:")
	writeCountMap(w, export.Metadata.WorkflowSummary)

	generators := topFindingGenerators(export.Findings, topGenerators)
	if len(generators) > 0 {
		fmt.Fprintln(w, "\nTop finding generators:")
		for _, g := range generators {
			fmt.Fprintf(w, "  %-60s %d\n", g.ID, g.Count)
		}
	}
}

// generatorCount pairs a generator ID with its finding count.
type generatorCount struct {
	ID    string
	Count int
}

// topFindingGenerators ranks generator IDs by finding count.
func topFindingGenerators(findings []shtypes.AwsSecurityFinding, limit int) []generatorCount {
	counts := make(map[string]int)
	for _, finding := range findings {
		if id := aws.ToString(finding.GeneratorId); id != "" {
			counts[id]++
		}
	}

	generators := make([]generatorCount, 0, len(counts))
	for id, count := range counts {
		generators = append(generators, generatorCount{ID: id, Count: count})
	}

	sort.Slice(generators, func(i, j int) bool {
		if generators[i].Count != generators[j].Count {
			return generators[i].Count > generators[j].Count
		}
		return generators[i].ID < generators[j].ID
	})

	if limit > 0 && len(generators) > limit {
		generators = generators[:limit]
	}
	return generators
}

func writeCountMap(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "  %-12s %d\n", key, counts[key])
	}
}
