package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vartija/vartija/types"
)

// ListOldAMIs discovers AMIs owned by this account created before the
// cutoff.
func (p *Provider) ListOldAMIs(ctx context.Context, cutoff time.Time) ([]types.Resource, error) {
	var resources []types.Resource

	input := &ec2.DescribeImagesInput{
		Owners: []string{"self"},
	}

	paginator := ec2.NewDescribeImagesPaginator(p.ec2Client, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe AMIs: %w", err)
		}

		for _, image := range output.Images {
			created, err := time.Parse(time.RFC3339, aws.ToString(image.CreationDate))
			if err != nil {
				// unparseable creation date, leave the image alone
				continue
			}
			if !created.Before(cutoff) {
				continue
			}
			resources = append(resources, p.buildAMIResource(image, created))
		}
	}

	return resources, nil
}

// buildAMIResource converts an AMI to a resource row, carrying its
// backing snapshot IDs so cleanup can remove them together.
func (p *Provider) buildAMIResource(image ec2types.Image, created time.Time) types.Resource {
	imageID := aws.ToString(image.ImageId)

	var snapshotIDs []string
	for _, mapping := range image.BlockDeviceMappings {
		if mapping.Ebs != nil && aws.ToString(mapping.Ebs.SnapshotId) != "" {
			snapshotIDs = append(snapshotIDs, aws.ToString(mapping.Ebs.SnapshotId))
		}
	}

	return types.Resource{
		Region:    p.region,
		Type:      types.TypeAMI,
		ID:        imageID,
		Name:      aws.ToString(image.Name),
		State:     string(image.State),
		AccountID: p.accountID,
		Tags:      convertEC2Tags(image.Tags),
		CreatedAt: created,
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			SnapshotIDs: strings.Join(snapshotIDs, ","),
			Description: aws.ToString(image.Description),
			AgeDays:     int(time.Since(created).Hours() / 24),
		},
	}
}

// DeregisterAMI deregisters one AMI. Callers gate this behind dry-run.
func (p *Provider) DeregisterAMI(ctx context.Context, imageID string) error {
	_, err := p.ec2Client.DeregisterImage(ctx, &ec2.DeregisterImageInput{
		ImageId: aws.String(imageID),
	})
	if err != nil {
		return fmt.Errorf("failed to deregister AMI %s: %w", imageID, err)
	}
	return nil
}

// ListOldSnapshots discovers EBS snapshots owned by this account
// started before the cutoff.
func (p *Provider) ListOldSnapshots(ctx context.Context, cutoff time.Time) ([]types.Resource, error) {
	var resources []types.Resource

	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	}

	paginator := ec2.NewDescribeSnapshotsPaginator(p.ec2Client, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe snapshots: %w", err)
		}

		for _, snapshot := range output.Snapshots {
			started := safeTimeValue(snapshot.StartTime)
			if started.IsZero() || !started.Before(cutoff) {
				continue
			}
			resources = append(resources, p.buildSnapshotResource(snapshot, started))
		}
	}

	return resources, nil
}

// buildSnapshotResource converts a snapshot to a resource row.
func (p *Provider) buildSnapshotResource(snapshot ec2types.Snapshot, started time.Time) types.Resource {
	snapshotID := aws.ToString(snapshot.SnapshotId)

	return types.Resource{
		Region:    p.region,
		Type:      types.TypeSnapshot,
		ID:        snapshotID,
		Name:      nameFromEC2Tags(snapshot.Tags, snapshotID),
		State:     string(snapshot.State),
		AccountID: p.accountID,
		Tags:      convertEC2Tags(snapshot.Tags),
		CreatedAt: started,
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			SizeGB:         aws.ToInt32(snapshot.VolumeSize),
			SourceVolumeID: aws.ToString(snapshot.VolumeId),
			Description:    aws.ToString(snapshot.Description),
			AgeDays:        int(time.Since(started).Hours() / 24),
		},
	}
}

// DeleteSnapshot deletes one snapshot. Callers gate this behind
// dry-run. Snapshots still referenced by an AMI fail with
// InvalidSnapshot.InUse, which callers treat as skip-and-continue.
func (p *Provider) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	_, err := p.ec2Client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
		SnapshotId: aws.String(snapshotID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", snapshotID, err)
	}
	return nil
}
