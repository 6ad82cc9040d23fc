package types

import "time"

// Severity levels for posture findings, ordered.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank returns a numeric order for sorting, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Finding is one detected posture issue tied to a resource or the account.
type Finding struct {
	CheckID      string    `json:"check_id"`
	Severity     Severity  `json:"severity"`
	Region       string    `json:"region"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	ResourceName string    `json:"resource_name,omitempty"`
	Summary      string    `json:"summary"`
	DetectedAt   time.Time `json:"detected_at"`

	// Exempted is set by policy evaluation; exempted findings stay in
	// reports but are excluded from severity totals and exit status.
	Exempted     bool   `json:"exempted,omitempty"`
	ExemptReason string `json:"exempt_reason,omitempty"`
}

// Key identifies a finding across scan runs for diffing.
func (f Finding) Key() string {
	return f.CheckID + "/" + f.Region + "/" + f.ResourceID
}

// SeveritySummary counts findings per severity, skipping exempted ones.
func SeveritySummary(findings []Finding) map[Severity]int {
	summary := make(map[Severity]int)
	for _, f := range findings {
		if f.Exempted {
			continue
		}
		summary[f.Severity]++
	}
	return summary
}
