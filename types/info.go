package types

import (
	"fmt"
	"strings"
)

// ResourceInfo carries per-type detail for the additional_info report
// column. Structured fields, no maps.
type ResourceInfo struct {
	// Compute
	InstanceType     string `json:"instance_type,omitempty"`
	AvailabilityZone string `json:"availability_zone,omitempty"`
	PrivateIP        string `json:"private_ip,omitempty"`
	SubnetID         string `json:"subnet_id,omitempty"`

	// Network
	AllocationID       string `json:"allocation_id,omitempty"`
	AssociationID      string `json:"association_id,omitempty"`
	AttachedTo         string `json:"attached_to,omitempty"`
	NetworkInterfaceID string `json:"network_interface_id,omitempty"`
	Scheme             string `json:"scheme,omitempty"`
	LoadBalancerType   string `json:"load_balancer_type,omitempty"`

	// Databases and clusters
	Engine             string `json:"engine,omitempty"`
	Endpoint           string `json:"endpoint,omitempty"`
	Port               int32  `json:"port,omitempty"`
	PubliclyAccessible bool   `json:"publicly_accessible,omitempty"`
	Encrypted          bool   `json:"encrypted,omitempty"`
	ClusterVersion     string `json:"cluster_version,omitempty"`
	PublicAccessCIDRs  string `json:"public_access_cidrs,omitempty"`

	// Serverless
	AuthType    string `json:"auth_type,omitempty"`
	FunctionURL string `json:"function_url,omitempty"`
	Runtime     string `json:"runtime,omitempty"`

	// Storage and images
	SizeGB         int32  `json:"size_gb,omitempty"`
	SourceVolumeID string `json:"source_volume_id,omitempty"`
	SnapshotIDs    string `json:"snapshot_ids,omitempty"`
	Description    string `json:"description,omitempty"`
	AgeDays        int    `json:"age_days,omitempty"`

	// DNS
	RecordCount int  `json:"record_count,omitempty"`
	PrivateZone bool `json:"private_zone,omitempty"`
}

// String flattens the populated fields into "key=value; key=value" form
// for the additional_info CSV column.
func (i ResourceInfo) String() string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+value)
		}
	}

	add("instance_type", i.InstanceType)
	add("az", i.AvailabilityZone)
	add("private_ip", i.PrivateIP)
	add("subnet", i.SubnetID)
	add("allocation_id", i.AllocationID)
	add("attached_to", i.AttachedTo)
	add("eni", i.NetworkInterfaceID)
	add("scheme", i.Scheme)
	add("lb_type", i.LoadBalancerType)
	add("engine", i.Engine)
	add("endpoint", i.Endpoint)
	if i.Port != 0 {
		add("port", fmt.Sprintf("%d", i.Port))
	}
	if i.PubliclyAccessible {
		add("publicly_accessible", "true")
	}
	add("cluster_version", i.ClusterVersion)
	add("public_access_cidrs", i.PublicAccessCIDRs)
	add("auth_type", i.AuthType)
	add("function_url", i.FunctionURL)
	add("runtime", i.Runtime)
	if i.SizeGB != 0 {
		add("size_gb", fmt.Sprintf("%d", i.SizeGB))
	}
	add("source_volume", i.SourceVolumeID)
	add("snapshots", i.SnapshotIDs)
	add("description", i.Description)
	if i.AgeDays != 0 {
		add("age_days", fmt.Sprintf("%d", i.AgeDays))
	}
	if i.RecordCount != 0 {
		add("records", fmt.Sprintf("%d", i.RecordCount))
	}
	if i.PrivateZone {
		add("private_zone", "true")
	}

	return strings.Join(parts, "; ")
}
