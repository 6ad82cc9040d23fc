package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/route53"
)

// mockEC2 implements EC2API through overridable function fields. Nil
// fields return empty results so tests only wire what they use.
// Mutating calls are recorded for zero-mutation assertions.
type mockEC2 struct {
	describeAddresses func(*ec2.DescribeAddressesInput) (*ec2.DescribeAddressesOutput, error)
	describeFlowLogs  func(*ec2.DescribeFlowLogsInput) (*ec2.DescribeFlowLogsOutput, error)
	describeImages    func(*ec2.DescribeImagesInput) (*ec2.DescribeImagesOutput, error)
	describeSnapshots func(*ec2.DescribeSnapshotsInput) (*ec2.DescribeSnapshotsOutput, error)
	describeEndpoints func(*ec2.DescribeVpcEndpointsInput) (*ec2.DescribeVpcEndpointsOutput, error)
	describeTables    func(*ec2.DescribeRouteTablesInput) (*ec2.DescribeRouteTablesOutput, error)
	describeAttrs     func(*ec2.DescribeAccountAttributesInput) (*ec2.DescribeAccountAttributesOutput, error)
	createFlowLogs    func(*ec2.CreateFlowLogsInput) (*ec2.CreateFlowLogsOutput, error)
	createEndpoint    func(*ec2.CreateVpcEndpointInput) (*ec2.CreateVpcEndpointOutput, error)

	releasedAddresses  []string
	deregisteredImages []string
	deletedSnapshots   []string
}

func (m *mockEC2) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return &ec2.DescribeRegionsOutput{}, nil
}

func (m *mockEC2) DescribeAccountAttributes(ctx context.Context, params *ec2.DescribeAccountAttributesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAccountAttributesOutput, error) {
	if m.describeAttrs != nil {
		return m.describeAttrs(params)
	}
	return &ec2.DescribeAccountAttributesOutput{}, nil
}

func (m *mockEC2) DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	return &ec2.DescribeVpcsOutput{}, nil
}

func (m *mockEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return &ec2.DescribeInstancesOutput{}, nil
}

func (m *mockEC2) DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error) {
	if m.describeAddresses != nil {
		return m.describeAddresses(params)
	}
	return &ec2.DescribeAddressesOutput{}, nil
}

func (m *mockEC2) DescribeNatGateways(ctx context.Context, params *ec2.DescribeNatGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error) {
	return &ec2.DescribeNatGatewaysOutput{}, nil
}

func (m *mockEC2) DescribeFlowLogs(ctx context.Context, params *ec2.DescribeFlowLogsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeFlowLogsOutput, error) {
	if m.describeFlowLogs != nil {
		return m.describeFlowLogs(params)
	}
	return &ec2.DescribeFlowLogsOutput{}, nil
}

func (m *mockEC2) CreateFlowLogs(ctx context.Context, params *ec2.CreateFlowLogsInput, optFns ...func(*ec2.Options)) (*ec2.CreateFlowLogsOutput, error) {
	if m.createFlowLogs != nil {
		return m.createFlowLogs(params)
	}
	return &ec2.CreateFlowLogsOutput{}, nil
}

func (m *mockEC2) DescribeVpcEndpoints(ctx context.Context, params *ec2.DescribeVpcEndpointsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcEndpointsOutput, error) {
	if m.describeEndpoints != nil {
		return m.describeEndpoints(params)
	}
	return &ec2.DescribeVpcEndpointsOutput{}, nil
}

func (m *mockEC2) CreateVpcEndpoint(ctx context.Context, params *ec2.CreateVpcEndpointInput, optFns ...func(*ec2.Options)) (*ec2.CreateVpcEndpointOutput, error) {
	if m.createEndpoint != nil {
		return m.createEndpoint(params)
	}
	return &ec2.CreateVpcEndpointOutput{}, nil
}

func (m *mockEC2) DescribeRouteTables(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	if m.describeTables != nil {
		return m.describeTables(params)
	}
	return &ec2.DescribeRouteTablesOutput{}, nil
}

func (m *mockEC2) DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	if m.describeImages != nil {
		return m.describeImages(params)
	}
	return &ec2.DescribeImagesOutput{}, nil
}

func (m *mockEC2) DeregisterImage(ctx context.Context, params *ec2.DeregisterImageInput, optFns ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error) {
	m.deregisteredImages = append(m.deregisteredImages, *params.ImageId)
	return &ec2.DeregisterImageOutput{}, nil
}

func (m *mockEC2) DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	if m.describeSnapshots != nil {
		return m.describeSnapshots(params)
	}
	return &ec2.DescribeSnapshotsOutput{}, nil
}

func (m *mockEC2) DeleteSnapshot(ctx context.Context, params *ec2.DeleteSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error) {
	m.deletedSnapshots = append(m.deletedSnapshots, *params.SnapshotId)
	return &ec2.DeleteSnapshotOutput{}, nil
}

func (m *mockEC2) ReleaseAddress(ctx context.Context, params *ec2.ReleaseAddressInput, optFns ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error) {
	m.releasedAddresses = append(m.releasedAddresses, *params.AllocationId)
	return &ec2.ReleaseAddressOutput{}, nil
}

// mockLogs implements CloudWatchLogsAPI.
type mockLogs struct {
	createLogGroup func(*cloudwatchlogs.CreateLogGroupInput) (*cloudwatchlogs.CreateLogGroupOutput, error)

	retentionCalls []cloudwatchlogs.PutRetentionPolicyInput
}

func (m *mockLogs) CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	if m.createLogGroup != nil {
		return m.createLogGroup(params)
	}
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (m *mockLogs) PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error) {
	m.retentionCalls = append(m.retentionCalls, *params)
	return &cloudwatchlogs.PutRetentionPolicyOutput{}, nil
}

// mockRoute53 implements Route53API.
type mockRoute53 struct {
	listZones   func(*route53.ListHostedZonesInput) (*route53.ListHostedZonesOutput, error)
	listRecords func(*route53.ListResourceRecordSetsInput) (*route53.ListResourceRecordSetsOutput, error)

	deletedZones []string
}

func (m *mockRoute53) ListHostedZones(ctx context.Context, params *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	if m.listZones != nil {
		return m.listZones(params)
	}
	return &route53.ListHostedZonesOutput{}, nil
}

func (m *mockRoute53) ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	if m.listRecords != nil {
		return m.listRecords(params)
	}
	return &route53.ListResourceRecordSetsOutput{}, nil
}

func (m *mockRoute53) DeleteHostedZone(ctx context.Context, params *route53.DeleteHostedZoneInput, optFns ...func(*route53.Options)) (*route53.DeleteHostedZoneOutput, error) {
	m.deletedZones = append(m.deletedZones, *params.Id)
	return &route53.DeleteHostedZoneOutput{}, nil
}

// mockIAM implements IAMAPI.
type mockIAM struct {
	listUsers       func(*iam.ListUsersInput) (*iam.ListUsersOutput, error)
	listMFADevices  func(*iam.ListMFADevicesInput) (*iam.ListMFADevicesOutput, error)
	getLoginProfile func(*iam.GetLoginProfileInput) (*iam.GetLoginProfileOutput, error)
	listAccessKeys  func(*iam.ListAccessKeysInput) (*iam.ListAccessKeysOutput, error)
	getKeyLastUsed  func(*iam.GetAccessKeyLastUsedInput) (*iam.GetAccessKeyLastUsedOutput, error)
	getPwdPolicy    func(*iam.GetAccountPasswordPolicyInput) (*iam.GetAccountPasswordPolicyOutput, error)
	getSummary      func(*iam.GetAccountSummaryInput) (*iam.GetAccountSummaryOutput, error)
}

func (m *mockIAM) ListUsers(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error) {
	if m.listUsers != nil {
		return m.listUsers(params)
	}
	return &iam.ListUsersOutput{}, nil
}

func (m *mockIAM) ListMFADevices(ctx context.Context, params *iam.ListMFADevicesInput, optFns ...func(*iam.Options)) (*iam.ListMFADevicesOutput, error) {
	if m.listMFADevices != nil {
		return m.listMFADevices(params)
	}
	return &iam.ListMFADevicesOutput{}, nil
}

func (m *mockIAM) GetLoginProfile(ctx context.Context, params *iam.GetLoginProfileInput, optFns ...func(*iam.Options)) (*iam.GetLoginProfileOutput, error) {
	if m.getLoginProfile != nil {
		return m.getLoginProfile(params)
	}
	return &iam.GetLoginProfileOutput{}, nil
}

func (m *mockIAM) ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error) {
	if m.listAccessKeys != nil {
		return m.listAccessKeys(params)
	}
	return &iam.ListAccessKeysOutput{}, nil
}

func (m *mockIAM) GetAccessKeyLastUsed(ctx context.Context, params *iam.GetAccessKeyLastUsedInput, optFns ...func(*iam.Options)) (*iam.GetAccessKeyLastUsedOutput, error) {
	if m.getKeyLastUsed != nil {
		return m.getKeyLastUsed(params)
	}
	return &iam.GetAccessKeyLastUsedOutput{}, nil
}

func (m *mockIAM) GetAccountPasswordPolicy(ctx context.Context, params *iam.GetAccountPasswordPolicyInput, optFns ...func(*iam.Options)) (*iam.GetAccountPasswordPolicyOutput, error) {
	if m.getPwdPolicy != nil {
		return m.getPwdPolicy(params)
	}
	return &iam.GetAccountPasswordPolicyOutput{}, nil
}

func (m *mockIAM) GetAccountSummary(ctx context.Context, params *iam.GetAccountSummaryInput, optFns ...func(*iam.Options)) (*iam.GetAccountSummaryOutput, error) {
	if m.getSummary != nil {
		return m.getSummary(params)
	}
	return &iam.GetAccountSummaryOutput{}, nil
}
