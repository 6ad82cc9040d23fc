package types

import "time"

// Resource type identifiers used across scanners and reports.
const (
	TypeInstance     = "ec2-instance"
	TypeElasticIP    = "elastic-ip"
	TypeNATGateway   = "nat-gateway"
	TypeLoadBalancer = "load-balancer"
	TypeRDSInstance  = "rds-instance"
	TypeRedshift     = "redshift-cluster"
	TypeEKSCluster   = "eks-cluster"
	TypeFunctionURL  = "lambda-url"
	TypeBucket       = "s3-bucket"
	TypeAMI          = "ami"
	TypeSnapshot     = "ebs-snapshot"
	TypeHostedZone   = "route53-zone"
	TypeVPC          = "vpc"
)

// Resource is one row of the exposure inventory: a single AWS resource
// observed during a scan run.
type Resource struct {
	Region    string       `json:"region"`
	VpcID     string       `json:"vpc_id,omitempty"`
	VpcName   string       `json:"vpc_name,omitempty"`
	Type      string       `json:"resource_type"`
	ID        string       `json:"resource_id"`
	Name      string       `json:"resource_name,omitempty"`
	PublicIP  string       `json:"public_ip,omitempty"`
	PublicDNS string       `json:"public_dns,omitempty"`
	State     string       `json:"state,omitempty"`
	AccountID string       `json:"account_id,omitempty"`
	Tags      Tags         `json:"tags,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
	ScannedAt time.Time    `json:"scanned_at,omitempty"`
	Info      ResourceInfo `json:"additional_info,omitempty"`
}

// ResourceFilter narrows a scan to specific regions or resource types.
type ResourceFilter struct {
	Regions []string `json:"regions,omitempty"`
	Types   []string `json:"types,omitempty"`
}

// MatchesRegion reports whether a region passes the filter.
func (f ResourceFilter) MatchesRegion(region string) bool {
	if len(f.Regions) == 0 {
		return true
	}
	for _, r := range f.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// MatchesType reports whether a resource type passes the filter.
func (f ResourceFilter) MatchesType(resourceType string) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == resourceType {
			return true
		}
	}
	return false
}

// Matches checks both region and type.
func (r *Resource) Matches(filter ResourceFilter) bool {
	return filter.MatchesRegion(r.Region) && filter.MatchesType(r.Type)
}

// IsPublic reports whether the resource has any public surface.
func (r *Resource) IsPublic() bool {
	return r.PublicIP != "" || r.PublicDNS != "" || r.Info.PubliclyAccessible
}

// Age returns how old the resource is at the given instant.
// Zero CreatedAt yields zero age.
func (r *Resource) Age(now time.Time) time.Duration {
	if r.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(r.CreatedAt)
}
