// Package audit turns the exposure inventory and IAM account data
// into posture findings.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/vartija/vartija/types"
)

// Check IDs, stable across runs so findings diff cleanly.
const (
	CheckPublicInstance     = "public-ec2-instance"
	CheckUnassociatedEIP    = "unassociated-elastic-ip"
	CheckPublicRDS          = "public-rds-instance"
	CheckPublicRedshift     = "public-redshift-cluster"
	CheckOpenEKSEndpoint    = "open-eks-endpoint"
	CheckOpenFunctionURL    = "open-lambda-url"
	CheckExposedBucket      = "exposed-s3-bucket"
	CheckInternetFacingLB   = "internet-facing-lb"
	CheckRootMFAMissing     = "root-mfa-missing"
	CheckRootAccessKeys     = "root-access-keys"
	CheckUserMFAMissing     = "user-mfa-missing"
	CheckAccessKeyOld       = "access-key-old"
	CheckPasswordPolicyNone = "password-policy-missing"
	CheckPasswordPolicyWeak = "password-policy-weak"
	CheckNoMultiRegionTrail = "no-multiregion-trail"
	CheckTrailNotLogging    = "trail-not-logging"
	CheckKeyRotationOff     = "kms-rotation-disabled"
	CheckTablePITROff       = "dynamodb-pitr-disabled"
	CheckQueuePublicPolicy  = "sqs-public-policy"
)

// Unassociated Elastic IPs bill roughly this much per month.
const eipMonthlyCostUSD = 3.60

// Checker produces findings against configurable thresholds.
type Checker struct {
	now           time.Time
	maxKeyAgeDays int
}

// NewChecker creates a checker. maxKeyAgeDays bounds IAM access key
// age.
func NewChecker(now time.Time, maxKeyAgeDays int) *Checker {
	return &Checker{now: now, maxKeyAgeDays: maxKeyAgeDays}
}

// CheckInventory walks the exposure inventory and emits one finding
// per exposed resource.
func (c *Checker) CheckInventory(resources []types.Resource) []types.Finding {
	var findings []types.Finding
	for _, resource := range resources {
		if finding, ok := c.checkResource(resource); ok {
			findings = append(findings, finding)
		}
	}
	return findings
}

// checkResource maps one resource to its exposure finding.
func (c *Checker) checkResource(resource types.Resource) (types.Finding, bool) {
	switch resource.Type {
	case types.TypeInstance:
		return c.finding(CheckPublicInstance, types.SeverityMedium, resource,
			fmt.Sprintf("EC2 instance reachable at public IP %s", resource.PublicIP)), true

	case types.TypeElasticIP:
		if resource.State != "unassociated" {
			return types.Finding{}, false
		}
		return c.finding(CheckUnassociatedEIP, types.SeverityLow, resource,
			fmt.Sprintf("Elastic IP %s allocated but unattached, costing about $%.2f/month", resource.PublicIP, eipMonthlyCostUSD)), true

	case types.TypeRDSInstance:
		return c.finding(CheckPublicRDS, types.SeverityHigh, resource,
			"RDS instance is publicly accessible"), true

	case types.TypeRedshift:
		return c.finding(CheckPublicRedshift, types.SeverityHigh, resource,
			"Redshift cluster is publicly accessible"), true

	case types.TypeEKSCluster:
		severity := types.SeverityMedium
		if eksOpenToWorld(resource.Info.PublicAccessCIDRs) {
			severity = types.SeverityHigh
		}
		return c.finding(CheckOpenEKSEndpoint, severity, resource,
			fmt.Sprintf("EKS API endpoint is public (CIDRs: %s)", resource.Info.PublicAccessCIDRs)), true

	case types.TypeFunctionURL:
		return c.finding(CheckOpenFunctionURL, types.SeverityHigh, resource,
			"Lambda function URL requires no authentication"), true

	case types.TypeBucket:
		return c.finding(CheckExposedBucket, types.SeverityHigh, resource,
			fmt.Sprintf("S3 bucket not fully protected: %s", resource.Info.Description)), true

	case types.TypeLoadBalancer:
		return c.finding(CheckInternetFacingLB, types.SeverityInfo, resource,
			fmt.Sprintf("internet-facing %s load balancer", resource.Info.LoadBalancerType)), true
	}

	return types.Finding{}, false
}

// eksOpenToWorld reports whether the comma-joined public access CIDR
// list leaves the endpoint unrestricted. An empty list means AWS
// defaulted to 0.0.0.0/0.
func eksOpenToWorld(cidrs string) bool {
	if cidrs == "" {
		return true
	}
	for _, cidr := range strings.Split(cidrs, ",") {
		if strings.TrimSpace(cidr) == "0.0.0.0/0" {
			return true
		}
	}
	return false
}

// CheckAccount walks the IAM account audit and emits account posture
// findings.
func (c *Checker) CheckAccount(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding

	findings = append(findings, c.checkRoot(audit)...)
	findings = append(findings, c.checkUsers(audit)...)
	findings = append(findings, c.checkPasswordPolicy(audit)...)
	findings = append(findings, c.checkTrails(audit)...)
	findings = append(findings, c.checkKeys(audit)...)
	findings = append(findings, c.checkTables(audit)...)
	findings = append(findings, c.checkQueues(audit)...)

	return findings
}

func (c *Checker) checkRoot(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding

	if !audit.Summary.RootMFAEnabled {
		findings = append(findings, c.accountFinding(CheckRootMFAMissing, types.SeverityCritical, audit.Region,
			"root", "root account has no MFA device"))
	}
	if audit.Summary.RootAccessKeys {
		findings = append(findings, c.accountFinding(CheckRootAccessKeys, types.SeverityCritical, audit.Region,
			"root", "root account has active access keys"))
	}

	return findings
}

func (c *Checker) checkUsers(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding

	for _, user := range audit.Users {
		if user.HasConsoleAccess && !user.MFAEnabled {
			findings = append(findings, c.accountFinding(CheckUserMFAMissing, types.SeverityHigh, audit.Region,
				user.UserName, fmt.Sprintf("user %s has console access without MFA", user.UserName)))
		}

		for _, key := range user.AccessKeys {
			if key.Status != "Active" || key.AgeDays <= c.maxKeyAgeDays {
				continue
			}
			findings = append(findings, c.accountFinding(CheckAccessKeyOld, types.SeverityMedium, audit.Region,
				key.ID, fmt.Sprintf("access key of %s is %d days old (limit %d)", user.UserName, key.AgeDays, c.maxKeyAgeDays)))
		}
	}

	return findings
}

func (c *Checker) checkPasswordPolicy(audit types.AccountAudit) []types.Finding {
	policy := audit.PasswordPolicy

	if !policy.Present {
		return []types.Finding{c.accountFinding(CheckPasswordPolicyNone, types.SeverityHigh, audit.Region,
			"password-policy", "account has no password policy configured")}
	}

	var weaknesses []string
	if policy.MinimumLength < 14 {
		weaknesses = append(weaknesses, fmt.Sprintf("minimum length %d below 14", policy.MinimumLength))
	}
	if !policy.RequireSymbols || !policy.RequireNumbers || !policy.RequireUppercase || !policy.RequireLowercase {
		weaknesses = append(weaknesses, "character class requirements incomplete")
	}
	if policy.PasswordReusePrevent == 0 {
		weaknesses = append(weaknesses, "no password reuse prevention")
	}
	if !policy.ExpirePasswords {
		weaknesses = append(weaknesses, "passwords never expire")
	}

	if len(weaknesses) == 0 {
		return nil
	}

	summary := "password policy weak: " + weaknesses[0]
	for _, w := range weaknesses[1:] {
		summary += ", " + w
	}
	return []types.Finding{c.accountFinding(CheckPasswordPolicyWeak, types.SeverityMedium, audit.Region,
		"password-policy", summary)}
}

func (c *Checker) checkTrails(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding

	multiRegionLogging := false
	for _, trail := range audit.Trails {
		if trail.MultiRegion && trail.Logging {
			multiRegionLogging = true
		}
		if !trail.Logging {
			findings = append(findings, c.accountFinding(CheckTrailNotLogging, types.SeverityMedium, audit.Region,
				trail.Name, fmt.Sprintf("trail %s is not logging", trail.Name)))
		}
	}

	if !multiRegionLogging {
		findings = append(findings, c.accountFinding(CheckNoMultiRegionTrail, types.SeverityHigh, audit.Region,
			"cloudtrail", "no multi-region CloudTrail trail is logging"))
	}

	return findings
}

func (c *Checker) checkKeys(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding
	for _, key := range audit.Keys {
		if key.State != "Enabled" || key.RotationEnabled {
			continue
		}
		findings = append(findings, c.accountFinding(CheckKeyRotationOff, types.SeverityMedium, audit.Region,
			key.ID, fmt.Sprintf("customer KMS key %s has rotation disabled", key.ID)))
	}
	return findings
}

func (c *Checker) checkTables(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding
	for _, table := range audit.Tables {
		if table.PITREnabled {
			continue
		}
		findings = append(findings, c.accountFinding(CheckTablePITROff, types.SeverityLow, audit.Region,
			table.Name, fmt.Sprintf("DynamoDB table %s lacks point-in-time recovery", table.Name)))
	}
	return findings
}

func (c *Checker) checkQueues(audit types.AccountAudit) []types.Finding {
	var findings []types.Finding
	for _, queue := range audit.Queues {
		if !queue.PublicPolicy {
			continue
		}
		findings = append(findings, c.accountFinding(CheckQueuePublicPolicy, types.SeverityHigh, audit.Region,
			queue.URL, "SQS queue policy allows the wildcard principal"))
	}
	return findings
}

// finding builds a resource-scoped finding.
func (c *Checker) finding(checkID string, severity types.Severity, resource types.Resource, summary string) types.Finding {
	return types.Finding{
		CheckID:      checkID,
		Severity:     severity,
		Region:       resource.Region,
		ResourceType: resource.Type,
		ResourceID:   resource.ID,
		ResourceName: resource.Name,
		Summary:      summary,
		DetectedAt:   c.now,
	}
}

// accountFinding builds an account-scoped finding.
func (c *Checker) accountFinding(checkID string, severity types.Severity, region, resourceID, summary string) types.Finding {
	return types.Finding{
		CheckID:    checkID,
		Severity:   severity,
		Region:     region,
		ResourceID: resourceID,
		Summary:    summary,
		DetectedAt: c.now,
	}
}
