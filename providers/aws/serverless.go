package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/vartija/vartija/types"
)

// ListPublicFunctionURLs discovers Lambda function URLs with auth type
// NONE, which anyone on the internet can invoke.
func (p *Provider) ListPublicFunctionURLs(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource
	paginator := lambda.NewListFunctionsPaginator(p.lambdaClient, &lambda.ListFunctionsInput{})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Lambda functions: %w", err)
		}

		for _, fn := range output.Functions {
			urls, err := p.lambdaClient.ListFunctionUrlConfigs(ctx, &lambda.ListFunctionUrlConfigsInput{
				FunctionName: fn.FunctionName,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list URL configs for %s: %w", aws.ToString(fn.FunctionName), err)
			}

			for _, cfg := range urls.FunctionUrlConfigs {
				if cfg.AuthType != lambdatypes.FunctionUrlAuthTypeNone {
					continue
				}
				resources = append(resources, p.buildFunctionURLResource(fn, cfg))
			}
		}
	}

	return resources, nil
}

// buildFunctionURLResource converts a function URL config to a
// resource row.
func (p *Provider) buildFunctionURLResource(fn lambdatypes.FunctionConfiguration, cfg lambdatypes.FunctionUrlConfig) types.Resource {
	url := aws.ToString(cfg.FunctionUrl)

	return types.Resource{
		Region:    p.region,
		Type:      types.TypeFunctionURL,
		ID:        aws.ToString(fn.FunctionArn),
		Name:      aws.ToString(fn.FunctionName),
		PublicDNS: strings.TrimSuffix(strings.TrimPrefix(url, "https://"), "/"),
		State:     string(fn.State),
		AccountID: p.accountID,
		ScannedAt: time.Now(),
		Info: types.ResourceInfo{
			AuthType:    string(cfg.AuthType),
			FunctionURL: url,
			Runtime:     string(fn.Runtime),
		},
	}
}
