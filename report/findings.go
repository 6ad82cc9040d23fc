package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/vartija/vartija/types"
)

var findingHeader = []string{
	"check_id", "severity", "region", "resource_type", "resource_id",
	"resource_name", "summary", "exempted", "exempt_reason",
}

// WriteFindings renders findings in the requested format, highest
// severity first.
func WriteFindings(w io.Writer, format Format, findings []types.Finding) error {
	sorted := make([]types.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})

	switch format {
	case FormatCSV:
		return writeFindingsCSV(w, sorted)
	case FormatJSON:
		return writeJSON(w, sorted)
	default:
		return writeFindingsTable(w, sorted)
	}
}

func writeFindingsCSV(w io.Writer, findings []types.Finding) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(findingHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, f := range findings {
		exempted := "false"
		if f.Exempted {
			exempted = "true"
		}
		row := []string{
			f.CheckID, string(f.Severity), f.Region, f.ResourceType,
			f.ResourceID, f.ResourceName, f.Summary, exempted, f.ExemptReason,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeFindingsTable(w io.Writer, findings []types.Finding) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "SEVERITY\tCHECK\tREGION\tRESOURCE\tSUMMARY")
	for _, f := range findings {
		resource := f.ResourceID
		if f.Exempted {
			resource += " (exempt)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.Severity, f.CheckID, f.Region, resource, f.Summary)
	}

	return tw.Flush()
}

// WriteSeveritySummary prints the per-severity totals, exempted
// findings excluded.
func WriteSeveritySummary(w io.Writer, findings []types.Finding) {
	summary := types.SeveritySummary(findings)

	order := []types.Severity{
		types.SeverityCritical, types.SeverityHigh, types.SeverityMedium,
		types.SeverityLow, types.SeverityInfo,
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Findings by severity:")
	for _, severity := range order {
		if count := summary[severity]; count > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", severity, count)
		}
	}
}
