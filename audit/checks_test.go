package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vartija/vartija/types"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func findByCheck(findings []types.Finding, checkID string) []types.Finding {
	var matched []types.Finding
	for _, f := range findings {
		if f.CheckID == checkID {
			matched = append(matched, f)
		}
	}
	return matched
}

func TestCheckInventory(t *testing.T) {
	checker := NewChecker(testNow, 90)

	t.Run("public instance", func(t *testing.T) {
		findings := checker.CheckInventory([]types.Resource{
			{Type: types.TypeInstance, Region: "eu-west-1", ID: "i-123", PublicIP: "54.1.2.3"},
		})

		require.Len(t, findings, 1)
		assert.Equal(t, CheckPublicInstance, findings[0].CheckID)
		assert.Equal(t, types.SeverityMedium, findings[0].Severity)
		assert.Contains(t, findings[0].Summary, "54.1.2.3")
	})

	t.Run("unassociated EIP carries cost estimate", func(t *testing.T) {
		findings := checker.CheckInventory([]types.Resource{
			{Type: types.TypeElasticIP, ID: "eipalloc-1", PublicIP: "54.0.0.1", State: "unassociated"},
		})

		require.Len(t, findings, 1)
		assert.Equal(t, CheckUnassociatedEIP, findings[0].CheckID)
		assert.Equal(t, types.SeverityLow, findings[0].Severity)
		assert.Contains(t, findings[0].Summary, "$3.60/month")
	})

	t.Run("associated EIP is not a finding", func(t *testing.T) {
		findings := checker.CheckInventory([]types.Resource{
			{Type: types.TypeElasticIP, ID: "eipalloc-2", State: "associated"},
		})
		assert.Empty(t, findings)
	})

	t.Run("EKS severity depends on CIDR restriction", func(t *testing.T) {
		tests := []struct {
			name  string
			cidrs string
			want  types.Severity
		}{
			{"open to the world", "0.0.0.0/0", types.SeverityHigh},
			{"open CIDR buried in a list", "0.0.0.0/0,10.0.0.0/8", types.SeverityHigh},
			{"no CIDRs recorded", "", types.SeverityHigh},
			{"restricted CIDRs", "10.0.0.0/8", types.SeverityMedium},
			{"several restricted CIDRs", "10.0.0.0/8,192.168.0.0/16", types.SeverityMedium},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				findings := checker.CheckInventory([]types.Resource{
					{Type: types.TypeEKSCluster, ID: "prod", Info: types.ResourceInfo{PublicAccessCIDRs: tt.cidrs}},
				})
				require.Len(t, findings, 1)
				assert.Equal(t, tt.want, findings[0].Severity)
			})
		}
	})

	t.Run("high severity exposures", func(t *testing.T) {
		findings := checker.CheckInventory([]types.Resource{
			{Type: types.TypeRDSInstance, ID: "db-1"},
			{Type: types.TypeRedshift, ID: "wh-1"},
			{Type: types.TypeFunctionURL, ID: "fn-1"},
			{Type: types.TypeBucket, ID: "bucket-1"},
		})

		require.Len(t, findings, 4)
		for _, f := range findings {
			assert.Equal(t, types.SeverityHigh, f.Severity, f.CheckID)
		}
	})

	t.Run("load balancer is informational", func(t *testing.T) {
		findings := checker.CheckInventory([]types.Resource{
			{Type: types.TypeLoadBalancer, ID: "lb-1", Info: types.ResourceInfo{LoadBalancerType: "application"}},
		})

		require.Len(t, findings, 1)
		assert.Equal(t, types.SeverityInfo, findings[0].Severity)
	})
}

func TestCheckAccount_Root(t *testing.T) {
	checker := NewChecker(testNow, 90)

	t.Run("root without MFA and with keys", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Region:  "us-east-1",
			Summary: types.AccountSummary{RootMFAEnabled: false, RootAccessKeys: true},
		})

		mfa := findByCheck(findings, CheckRootMFAMissing)
		keys := findByCheck(findings, CheckRootAccessKeys)
		require.Len(t, mfa, 1)
		require.Len(t, keys, 1)
		assert.Equal(t, types.SeverityCritical, mfa[0].Severity)
		assert.Equal(t, types.SeverityCritical, keys[0].Severity)
	})

	t.Run("healthy root", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Summary: types.AccountSummary{RootMFAEnabled: true, RootAccessKeys: false},
		})

		assert.Empty(t, findByCheck(findings, CheckRootMFAMissing))
		assert.Empty(t, findByCheck(findings, CheckRootAccessKeys))
	})
}

func TestCheckAccount_Users(t *testing.T) {
	checker := NewChecker(testNow, 90)

	audit := types.AccountAudit{
		Region:  "us-east-1",
		Summary: types.AccountSummary{RootMFAEnabled: true},
		Users: []types.IAMUser{
			{
				UserName:         "alice",
				HasConsoleAccess: true,
				MFAEnabled:       false,
			},
			{
				UserName:         "bob",
				HasConsoleAccess: true,
				MFAEnabled:       true,
				AccessKeys: []types.AccessKey{
					{ID: "AKIAOLD", Status: "Active", AgeDays: 200},
					{ID: "AKIAINACTIVE", Status: "Inactive", AgeDays: 500},
					{ID: "AKIAFRESH", Status: "Active", AgeDays: 30},
				},
			},
			{
				UserName:   "service-account",
				MFAEnabled: false, // no console access, MFA not required
			},
		},
	}

	findings := checker.CheckAccount(audit)

	mfa := findByCheck(findings, CheckUserMFAMissing)
	require.Len(t, mfa, 1)
	assert.Equal(t, "alice", mfa[0].ResourceID)
	assert.Equal(t, types.SeverityHigh, mfa[0].Severity)

	oldKeys := findByCheck(findings, CheckAccessKeyOld)
	require.Len(t, oldKeys, 1, "only active keys over the limit")
	assert.Equal(t, "AKIAOLD", oldKeys[0].ResourceID)
}

func TestCheckAccount_PasswordPolicy(t *testing.T) {
	checker := NewChecker(testNow, 90)

	t.Run("missing policy", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Summary:        types.AccountSummary{RootMFAEnabled: true},
			PasswordPolicy: types.PasswordPolicy{Present: false},
		})

		missing := findByCheck(findings, CheckPasswordPolicyNone)
		require.Len(t, missing, 1)
		assert.Equal(t, types.SeverityHigh, missing[0].Severity)
	})

	t.Run("weak policy", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Summary: types.AccountSummary{RootMFAEnabled: true},
			PasswordPolicy: types.PasswordPolicy{
				Present:          true,
				MinimumLength:    8,
				RequireSymbols:   true,
				RequireNumbers:   true,
				RequireUppercase: true,
				RequireLowercase: true,
				ExpirePasswords:  true,
			},
		})

		weak := findByCheck(findings, CheckPasswordPolicyWeak)
		require.Len(t, weak, 1)
		assert.Contains(t, weak[0].Summary, "minimum length 8 below 14")
		assert.Contains(t, weak[0].Summary, "no password reuse prevention")
	})

	t.Run("strong policy", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Summary: types.AccountSummary{RootMFAEnabled: true},
			PasswordPolicy: types.PasswordPolicy{
				Present:              true,
				MinimumLength:        16,
				RequireSymbols:       true,
				RequireNumbers:       true,
				RequireUppercase:     true,
				RequireLowercase:     true,
				PasswordReusePrevent: 24,
				ExpirePasswords:      true,
			},
		})

		assert.Empty(t, findByCheck(findings, CheckPasswordPolicyWeak))
		assert.Empty(t, findByCheck(findings, CheckPasswordPolicyNone))
	})
}

func TestCheckAccount_Trails(t *testing.T) {
	checker := NewChecker(testNow, 90)

	t.Run("multi-region trail logging", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Summary: types.AccountSummary{RootMFAEnabled: true},
			Trails: []types.TrailInfo{
				{Name: "org-trail", MultiRegion: true, Logging: true},
			},
		})

		assert.Empty(t, findByCheck(findings, CheckNoMultiRegionTrail))
	})

	t.Run("only single-region trails", func(t *testing.T) {
		findings := checker.CheckAccount(types.AccountAudit{
			Summary: types.AccountSummary{RootMFAEnabled: true},
			Trails: []types.TrailInfo{
				{Name: "regional", MultiRegion: false, Logging: true},
				{Name: "stopped", MultiRegion: true, Logging: false},
			},
		})

		assert.Len(t, findByCheck(findings, CheckNoMultiRegionTrail), 1)
		stopped := findByCheck(findings, CheckTrailNotLogging)
		require.Len(t, stopped, 1)
		assert.Equal(t, "stopped", stopped[0].ResourceID)
	})
}

func TestCheckAccount_KeysTablesQueues(t *testing.T) {
	checker := NewChecker(testNow, 90)

	findings := checker.CheckAccount(types.AccountAudit{
		Summary: types.AccountSummary{RootMFAEnabled: true},
		Trails:  []types.TrailInfo{{MultiRegion: true, Logging: true}},
		Keys: []types.KeyInfo{
			{ID: "key-rotating", State: "Enabled", RotationEnabled: true},
			{ID: "key-static", State: "Enabled", RotationEnabled: false},
			{ID: "key-disabled", State: "Disabled", RotationEnabled: false},
		},
		Tables: []types.TableBackupInfo{
			{Name: "orders", PITREnabled: true},
			{Name: "sessions", PITREnabled: false},
		},
		Queues: []types.QueueInfo{
			{URL: "https://sqs/private", PublicPolicy: false},
			{URL: "https://sqs/public", PublicPolicy: true},
		},
	})

	rotation := findByCheck(findings, CheckKeyRotationOff)
	require.Len(t, rotation, 1, "disabled keys are not flagged")
	assert.Equal(t, "key-static", rotation[0].ResourceID)

	pitr := findByCheck(findings, CheckTablePITROff)
	require.Len(t, pitr, 1)
	assert.Equal(t, "sessions", pitr[0].ResourceID)

	public := findByCheck(findings, CheckQueuePublicPolicy)
	require.Len(t, public, 1)
	assert.Equal(t, "https://sqs/public", public[0].ResourceID)
	assert.Equal(t, types.SeverityHigh, public[0].Severity)
}
