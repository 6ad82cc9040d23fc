package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/vartija/vartija/types"
)

// convertEC2Tags converts EC2 tag lists to structured tags.
func convertEC2Tags(ec2Tags []ec2types.Tag) types.Tags {
	tagMap := make(map[string]string, len(ec2Tags))
	for _, tag := range ec2Tags {
		tagMap[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return types.TagsFromMap(tagMap)
}

// convertRDSTags converts RDS tag lists to structured tags.
func convertRDSTags(rdsTags []rdstypes.Tag) types.Tags {
	tagMap := make(map[string]string, len(rdsTags))
	for _, tag := range rdsTags {
		tagMap[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return types.TagsFromMap(tagMap)
}

// nameFromEC2Tags returns the Name tag or a fallback identifier.
func nameFromEC2Tags(ec2Tags []ec2types.Tag, fallback string) string {
	for _, tag := range ec2Tags {
		if aws.ToString(tag.Key) == "Name" && aws.ToString(tag.Value) != "" {
			return aws.ToString(tag.Value)
		}
	}
	return fallback
}
