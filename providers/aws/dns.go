package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/vartija/vartija/types"
)

// ListEmptyHostedZones discovers Route 53 zones carrying only the SOA
// and NS records every zone is born with. Those serve nothing and
// still bill monthly.
func (p *Provider) ListEmptyHostedZones(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := route53.NewListHostedZonesPaginator(p.route53Client, &route53.ListHostedZonesInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list hosted zones: %w", err)
		}

		for _, zone := range output.HostedZones {
			empty, recordCount, err := p.zoneIsEmpty(ctx, aws.ToString(zone.Id))
			if err != nil {
				return nil, err
			}
			if !empty {
				continue
			}
			resources = append(resources, p.buildHostedZoneResource(zone, recordCount))
		}
	}

	return resources, nil
}

// zoneIsEmpty reports whether a zone holds only SOA and NS records.
func (p *Provider) zoneIsEmpty(ctx context.Context, zoneID string) (bool, int, error) {
	recordCount := 0
	paginator := route53.NewListResourceRecordSetsPaginator(p.route53Client, &route53.ListResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return false, 0, fmt.Errorf("failed to list record sets for zone %s: %w", zoneID, err)
		}

		for _, record := range output.ResourceRecordSets {
			recordCount++
			if record.Type != r53types.RRTypeSoa && record.Type != r53types.RRTypeNs {
				return false, recordCount, nil
			}
		}
	}

	return true, recordCount, nil
}

// buildHostedZoneResource converts a hosted zone to a resource row.
func (p *Provider) buildHostedZoneResource(zone r53types.HostedZone, recordCount int) types.Resource {
	private := zone.Config != nil && zone.Config.PrivateZone

	return types.Resource{
		Region:    p.region,
		Type:      types.TypeHostedZone,
		ID:        aws.ToString(zone.Id),
		Name:      aws.ToString(zone.Name),
		State:     "empty",
		AccountID: p.accountID,
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			RecordCount: recordCount,
			PrivateZone: private,
		},
	}
}

// DeleteHostedZone deletes one zone. Route 53 refuses zones still
// holding records beyond SOA and NS, so this is safe against races.
func (p *Provider) DeleteHostedZone(ctx context.Context, zoneID string) error {
	_, err := p.route53Client.DeleteHostedZone(ctx, &route53.DeleteHostedZoneInput{
		Id: aws.String(zoneID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete hosted zone %s: %w", zoneID, err)
	}
	return nil
}
