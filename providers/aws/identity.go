package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/vartija/vartija/types"
)

// CollectIAMUsers gathers the audit view of every IAM user: console
// access, MFA state, and access keys with their ages.
func (p *Provider) CollectIAMUsers(ctx context.Context, now time.Time) ([]types.IAMUser, error) {
	var users []types.IAMUser
	paginator := iam.NewListUsersPaginator(p.iamClient, &iam.ListUsersInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list IAM users: %w", err)
		}

		for _, user := range output.Users {
			collected, err := p.collectIAMUser(ctx, user, now)
			if err != nil {
				return nil, err
			}
			users = append(users, collected)
		}
	}

	return users, nil
}

// collectIAMUser resolves one user's posture.
func (p *Provider) collectIAMUser(ctx context.Context, user iamtypes.User, now time.Time) (types.IAMUser, error) {
	userName := aws.ToString(user.UserName)

	mfaEnabled, err := p.userHasMFA(ctx, userName)
	if err != nil {
		return types.IAMUser{}, err
	}

	hasConsole, err := p.userHasLoginProfile(ctx, userName)
	if err != nil {
		return types.IAMUser{}, err
	}

	keys, err := p.collectAccessKeys(ctx, userName, now)
	if err != nil {
		return types.IAMUser{}, err
	}

	return types.IAMUser{
		UserName:         userName,
		CreatedAt:        safeTimeValue(user.CreateDate),
		HasConsoleAccess: hasConsole,
		MFAEnabled:       mfaEnabled,
		AccessKeys:       keys,
		LastPasswordUse:  user.PasswordLastUsed,
	}, nil
}

// userHasMFA reports whether any MFA device is attached to the user.
func (p *Provider) userHasMFA(ctx context.Context, userName string) (bool, error) {
	output, err := p.iamClient.ListMFADevices(ctx, &iam.ListMFADevicesInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list MFA devices for %s: %w", userName, err)
	}
	return len(output.MFADevices) > 0, nil
}

// userHasLoginProfile reports whether the user has console access.
// A missing login profile comes back as NoSuchEntity, not an error.
func (p *Provider) userHasLoginProfile(ctx context.Context, userName string) (bool, error) {
	_, err := p.iamClient.GetLoginProfile(ctx, &iam.GetLoginProfileInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		var noEntity *iamtypes.NoSuchEntityException
		if errors.As(err, &noEntity) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get login profile for %s: %w", userName, err)
	}
	return true, nil
}

// collectAccessKeys lists the user's access keys with age and last use.
func (p *Provider) collectAccessKeys(ctx context.Context, userName string, now time.Time) ([]types.AccessKey, error) {
	output, err := p.iamClient.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list access keys for %s: %w", userName, err)
	}

	var keys []types.AccessKey
	for _, key := range output.AccessKeyMetadata {
		keyID := aws.ToString(key.AccessKeyId)
		created := safeTimeValue(key.CreateDate)

		var lastUsed *time.Time
		usage, err := p.iamClient.GetAccessKeyLastUsed(ctx, &iam.GetAccessKeyLastUsedInput{
			AccessKeyId: key.AccessKeyId,
		})
		if err == nil && usage.AccessKeyLastUsed != nil && usage.AccessKeyLastUsed.LastUsedDate != nil {
			lastUsed = usage.AccessKeyLastUsed.LastUsedDate
		}

		keys = append(keys, types.AccessKey{
			ID:         keyID,
			Status:     string(key.Status),
			CreatedAt:  created,
			AgeDays:    int(now.Sub(created).Hours() / 24),
			LastUsedAt: lastUsed,
		})
	}

	return keys, nil
}

// GetPasswordPolicy fetches the account password policy. Accounts with
// no policy configured come back with Present false.
func (p *Provider) GetPasswordPolicy(ctx context.Context) (types.PasswordPolicy, error) {
	output, err := p.iamClient.GetAccountPasswordPolicy(ctx, &iam.GetAccountPasswordPolicyInput{})
	if err != nil {
		var noEntity *iamtypes.NoSuchEntityException
		if errors.As(err, &noEntity) {
			return types.PasswordPolicy{Present: false}, nil
		}
		return types.PasswordPolicy{}, fmt.Errorf("failed to get password policy: %w", err)
	}

	policy := output.PasswordPolicy
	return types.PasswordPolicy{
		Present:               true,
		MinimumLength:         aws.ToInt32(policy.MinimumPasswordLength),
		RequireSymbols:        policy.RequireSymbols,
		RequireNumbers:        policy.RequireNumbers,
		RequireUppercase:      policy.RequireUppercaseCharacters,
		RequireLowercase:      policy.RequireLowercaseCharacters,
		MaxPasswordAge:        aws.ToInt32(policy.MaxPasswordAge),
		PasswordReusePrevent:  aws.ToInt32(policy.PasswordReusePrevention),
		ExpirePasswords:       policy.ExpirePasswords,
		AllowUsersToChangePwd: policy.AllowUsersToChangePassword,
	}, nil
}

// GetAccountSummary fetches the root account posture bits.
func (p *Provider) GetAccountSummary(ctx context.Context) (types.AccountSummary, error) {
	output, err := p.iamClient.GetAccountSummary(ctx, &iam.GetAccountSummaryInput{})
	if err != nil {
		return types.AccountSummary{}, fmt.Errorf("failed to get account summary: %w", err)
	}

	m := output.SummaryMap
	return types.AccountSummary{
		RootMFAEnabled:  m["AccountMFAEnabled"] == 1,
		RootAccessKeys:  m["AccountAccessKeysPresent"] > 0,
		UserCount:       int(m["Users"]),
		MFADevices:      int(m["MFADevices"]),
		MFADevicesInUse: int(m["MFADevicesInUse"]),
	}, nil
}
