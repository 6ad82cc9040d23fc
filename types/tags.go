package types

// Tags represents resource tags as a structured type.
// No maps! Everything is explicit.
type Tags struct {
	// Vartija management tags
	VartijaKeep   bool   `json:"vartija_keep,omitempty"`
	VartijaExempt string `json:"vartija_exempt,omitempty"`

	// Standard infrastructure tags
	Name        string `json:"name,omitempty"`
	Environment string `json:"environment,omitempty"`
	Team        string `json:"team,omitempty"`
	Project     string `json:"project,omitempty"`
	CostCenter  string `json:"cost_center,omitempty"`

	// AWS common tags
	Owner       string `json:"owner,omitempty"`
	Application string `json:"application,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// IsKept reports whether the resource is pinned against cleanup.
func (t Tags) IsKept() bool {
	return t.VartijaKeep
}

// GetOwner returns the owner, falling back to the team tag.
func (t Tags) GetOwner() string {
	if t.Owner != "" {
		return t.Owner
	}
	return t.Team
}

// ToMap converts structured tags to map form for AWS API compatibility.
func (t Tags) ToMap() map[string]string {
	tags := make(map[string]string)

	if t.VartijaKeep {
		tags["vartija:keep"] = "true"
	}
	if t.VartijaExempt != "" {
		tags["vartija:exempt"] = t.VartijaExempt
	}
	if t.Name != "" {
		tags["Name"] = t.Name
	}
	if t.Environment != "" {
		tags["Environment"] = t.Environment
	}
	if t.Team != "" {
		tags["Team"] = t.Team
	}
	if t.Project != "" {
		tags["Project"] = t.Project
	}
	if t.CostCenter != "" {
		tags["CostCenter"] = t.CostCenter
	}
	if t.Owner != "" {
		tags["Owner"] = t.Owner
	}
	if t.Application != "" {
		tags["Application"] = t.Application
	}
	if t.CreatedBy != "" {
		tags["CreatedBy"] = t.CreatedBy
	}

	return tags
}

// TagsFromMap creates structured tags from a map.
func TagsFromMap(tagMap map[string]string) Tags {
	tags := Tags{}

	if val, ok := tagMap["vartija:keep"]; ok && val == "true" {
		tags.VartijaKeep = true
	}
	if val, ok := tagMap["vartija:exempt"]; ok {
		tags.VartijaExempt = val
	}
	if val, ok := tagMap["Name"]; ok {
		tags.Name = val
	}
	if val, ok := tagMap["Environment"]; ok {
		tags.Environment = val
	}
	if val, ok := tagMap["Team"]; ok {
		tags.Team = val
	}
	if val, ok := tagMap["Project"]; ok {
		tags.Project = val
	}
	if val, ok := tagMap["CostCenter"]; ok {
		tags.CostCenter = val
	}
	if val, ok := tagMap["Owner"]; ok {
		tags.Owner = val
	}
	if val, ok := tagMap["Application"]; ok {
		tags.Application = val
	}
	if val, ok := tagMap["CreatedBy"]; ok {
		tags.CreatedBy = val
	}

	return tags
}
