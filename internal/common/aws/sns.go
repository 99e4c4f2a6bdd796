package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// TopicPublisher publishes JSON messages to one SNS topic.
type TopicPublisher struct {
	api      SNSAPI
	topicARN string
}

func NewTopicPublisher(cfg aws.Config, topicARN string) *TopicPublisher {
	return &TopicPublisher{api: sns.NewFromConfig(cfg), topicARN: topicARN}
}

func NewTopicPublisherWithAPI(api SNSAPI, topicARN string) *TopicPublisher {
	return &TopicPublisher{api: api, topicARN: topicARN}
}

// Publish sends message with an eventType attribute so subscribers can filter.
func (p *TopicPublisher) Publish(ctx context.Context, subject, eventType, message string) (string, error) {
	out, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
