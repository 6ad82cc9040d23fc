package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vartija/vartija/types"
)

func TestListOldAMIs(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock := &mockEC2{
		describeImages: func(input *ec2.DescribeImagesInput) (*ec2.DescribeImagesOutput, error) {
			assert.Equal(t, []string{"self"}, input.Owners)
			return &ec2.DescribeImagesOutput{
				Images: []ec2types.Image{
					{
						ImageId:      aws.String("ami-old"),
						Name:         aws.String("backup-2023"),
						CreationDate: aws.String("2023-06-15T10:00:00.000Z"),
						State:        ec2types.ImageStateAvailable,
					},
					{
						ImageId:      aws.String("ami-new"),
						CreationDate: aws.String("2025-06-15T10:00:00.000Z"),
					},
					{
						ImageId:      aws.String("ami-bad-date"),
						CreationDate: aws.String("not-a-date"),
					},
				},
			}, nil
		},
	}
	p := &Provider{ec2Client: mock, region: "eu-west-1"}

	resources, err := p.ListOldAMIs(context.Background(), cutoff)

	require.NoError(t, err)
	require.Len(t, resources, 1, "only the image older than the cutoff")
	assert.Equal(t, "ami-old", resources[0].ID)
	assert.Equal(t, types.TypeAMI, resources[0].Type)
	assert.Equal(t, "backup-2023", resources[0].Name)
}

func TestBuildAMIResource(t *testing.T) {
	p := &Provider{region: "eu-west-1"}
	created := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)

	t.Run("collects backing snapshots", func(t *testing.T) {
		image := ec2types.Image{
			ImageId: aws.String("ami-123"),
			Name:    aws.String("golden"),
			State:   ec2types.ImageStateAvailable,
			BlockDeviceMappings: []ec2types.BlockDeviceMapping{
				{Ebs: &ec2types.EbsBlockDevice{SnapshotId: aws.String("snap-1")}},
				{DeviceName: aws.String("/dev/sdb")}, // ephemeral, no EBS
				{Ebs: &ec2types.EbsBlockDevice{SnapshotId: aws.String("snap-2")}},
			},
		}

		resource := p.buildAMIResource(image, created)

		assert.Equal(t, "snap-1,snap-2", resource.Info.SnapshotIDs)
		assert.Equal(t, created, resource.CreatedAt)
		assert.Greater(t, resource.Info.AgeDays, 365)
	})

	t.Run("no block devices", func(t *testing.T) {
		image := ec2types.Image{ImageId: aws.String("ami-456")}

		resource := p.buildAMIResource(image, created)

		assert.Empty(t, resource.Info.SnapshotIDs)
	})
}

func TestListOldSnapshots(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	oldStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock := &mockEC2{
		describeSnapshots: func(input *ec2.DescribeSnapshotsInput) (*ec2.DescribeSnapshotsOutput, error) {
			assert.Equal(t, []string{"self"}, input.OwnerIds)
			return &ec2.DescribeSnapshotsOutput{
				Snapshots: []ec2types.Snapshot{
					{
						SnapshotId: aws.String("snap-old"),
						StartTime:  &oldStart,
						VolumeSize: aws.Int32(100),
						VolumeId:   aws.String("vol-1"),
						State:      ec2types.SnapshotStateCompleted,
					},
					{
						SnapshotId: aws.String("snap-new"),
						StartTime:  &newStart,
					},
					{
						SnapshotId: aws.String("snap-no-time"),
					},
				},
			}, nil
		},
	}
	p := &Provider{ec2Client: mock, region: "eu-west-1"}

	resources, err := p.ListOldSnapshots(context.Background(), cutoff)

	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "snap-old", resources[0].ID)
	assert.Equal(t, types.TypeSnapshot, resources[0].Type)
	assert.Equal(t, int32(100), resources[0].Info.SizeGB)
	assert.Equal(t, "vol-1", resources[0].Info.SourceVolumeID)
}

func TestDeregisterAMI(t *testing.T) {
	mock := &mockEC2{}
	p := &Provider{ec2Client: mock, region: "eu-west-1"}

	require.NoError(t, p.DeregisterAMI(context.Background(), "ami-123"))
	assert.Equal(t, []string{"ami-123"}, mock.deregisteredImages)
}

func TestDeleteSnapshot(t *testing.T) {
	mock := &mockEC2{}
	p := &Provider{ec2Client: mock, region: "eu-west-1"}

	require.NoError(t, p.DeleteSnapshot(context.Background(), "snap-123"))
	assert.Equal(t, []string{"snap-123"}, mock.deletedSnapshots)
}
