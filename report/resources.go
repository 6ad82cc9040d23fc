// Package report renders inventories, findings, and Security Hub
// exports as CSV, JSON, or aligned tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vartija/vartija/types"
)

// Format selects the output rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// resourceHeader is the inventory column order, matching the flat
// record every command shares.
var resourceHeader = []string{
	"region", "vpc_id", "vpc_name", "resource_type", "resource_id",
	"resource_name", "public_ip", "public_dns", "state", "additional_info",
}

// WriteResources renders the inventory in the requested format.
func WriteResources(w io.Writer, format Format, resources []types.Resource) error {
	switch format {
	case FormatCSV:
		return writeResourcesCSV(w, resources)
	case FormatJSON:
		return writeJSON(w, resources)
	default:
		return writeResourcesTable(w, resources)
	}
}

// writeResourcesCSV always emits the header row, then one row per
// resource.
func writeResourcesCSV(w io.Writer, resources []types.Resource) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(resourceHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range resources {
		row := []string{
			r.Region, r.VpcID, r.VpcName, r.Type, r.ID,
			r.Name, r.PublicIP, r.PublicDNS, r.State, r.Info.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeResourcesTable(w io.Writer, resources []types.Resource) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "REGION\tTYPE\tID\tNAME\tPUBLIC IP\tPUBLIC DNS\tSTATE")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Region, r.Type, r.ID, r.Name, r.PublicIP, r.PublicDNS, r.State)
	}

	return tw.Flush()
}

// writeJSON indents for readability; reports are for humans first.
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
