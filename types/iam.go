package types

import "time"

// AccessKey is one IAM access key with its age at scan time.
type AccessKey struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	AgeDays    int        `json:"age_days"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// IAMUser is the audit view of one IAM user.
type IAMUser struct {
	UserName         string      `json:"user_name"`
	CreatedAt        time.Time   `json:"created_at"`
	HasConsoleAccess bool        `json:"has_console_access"`
	MFAEnabled       bool        `json:"mfa_enabled"`
	AccessKeys       []AccessKey `json:"access_keys,omitempty"`
	LastPasswordUse  *time.Time  `json:"last_password_use,omitempty"`
}

// PasswordPolicy mirrors the account password policy; Present is false
// when the account has none configured.
type PasswordPolicy struct {
	Present               bool  `json:"present"`
	MinimumLength         int32 `json:"minimum_length,omitempty"`
	RequireSymbols        bool  `json:"require_symbols,omitempty"`
	RequireNumbers        bool  `json:"require_numbers,omitempty"`
	RequireUppercase      bool  `json:"require_uppercase,omitempty"`
	RequireLowercase      bool  `json:"require_lowercase,omitempty"`
	MaxPasswordAge        int32 `json:"max_password_age,omitempty"`
	PasswordReusePrevent  int32 `json:"password_reuse_prevention,omitempty"`
	ExpirePasswords       bool  `json:"expire_passwords,omitempty"`
	AllowUsersToChangePwd bool  `json:"allow_users_to_change_password,omitempty"`
}

// AccountSummary carries the root account posture bits from IAM.
type AccountSummary struct {
	RootMFAEnabled     bool `json:"root_mfa_enabled"`
	RootAccessKeys     bool `json:"root_access_keys"`
	UserCount          int  `json:"user_count"`
	PoliciesAllowed    int  `json:"policies_allowed,omitempty"`
	MFADevices         int  `json:"mfa_devices,omitempty"`
	MFADevicesInUse    int  `json:"mfa_devices_in_use,omitempty"`
	AccessKeysPerUser  int  `json:"access_keys_per_user_quota,omitempty"`
	SigningCertsExists bool `json:"signing_certs,omitempty"`
}

// TrailInfo is the audit view of one CloudTrail trail.
type TrailInfo struct {
	Name        string `json:"name"`
	HomeRegion  string `json:"home_region"`
	MultiRegion bool   `json:"multi_region"`
	Logging     bool   `json:"logging"`
}

// KeyInfo is the audit view of one customer-managed KMS key.
type KeyInfo struct {
	ID              string `json:"id"`
	ARN             string `json:"arn"`
	State           string `json:"state"`
	RotationEnabled bool   `json:"rotation_enabled"`
}

// TableBackupInfo is the point-in-time-recovery state of a DynamoDB table.
type TableBackupInfo struct {
	Name        string `json:"name"`
	PITREnabled bool   `json:"pitr_enabled"`
}

// QueueInfo is the policy posture of one SQS queue.
type QueueInfo struct {
	URL          string `json:"url"`
	PublicPolicy bool   `json:"public_policy"`
}

// AccountAudit aggregates everything the audit command collects.
type AccountAudit struct {
	AccountID      string            `json:"account_id"`
	Region         string            `json:"region"`
	Users          []IAMUser         `json:"users"`
	PasswordPolicy PasswordPolicy    `json:"password_policy"`
	Summary        AccountSummary    `json:"summary"`
	Trails         []TrailInfo       `json:"trails"`
	Keys           []KeyInfo         `json:"keys,omitempty"`
	Tables         []TableBackupInfo `json:"tables,omitempty"`
	Queues         []QueueInfo       `json:"queues,omitempty"`
	CollectedAt    time.Time         `json:"collected_at"`
}
