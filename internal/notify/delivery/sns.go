// internal/notify/delivery/sns.go
package delivery

import (
	"context"

	"jobmatch-notifier/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the slice of the SNS API used here, defined for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSSender delivers text messages through Amazon SNS direct publish.
type SMSSender struct {
	client   SNSService
	senderID string
	logger   logger.Logger
}

func NewSMSSender(ctx context.Context, region, senderID string, log logger.Logger) (*SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SMSSender{
		client:   sns.NewFromConfig(awsCfg),
		senderID: senderID,
		logger:   log,
	}, nil
}

// NewSMSSenderWithClient injects a prebuilt SNS client, used by tests.
func NewSMSSenderWithClient(client SNSService, senderID string, log logger.Logger) *SMSSender {
	return &SMSSender{client: client, senderID: senderID, logger: log}
}

// Send publishes one SMS to an E.164 phone number.
func (s *SMSSender) Send(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if s.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.senderID),
			},
		}
	}
	if _, err := s.client.Publish(ctx, input); err != nil {
		return classifySendError(ChannelSMS, err)
	}
	return nil
}
