// internal/notify/delivery/ses.go
package delivery

import (
	"context"

	"jobmatch-notifier/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the slice of the SES API used here, defined for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSender delivers HTML email through Amazon SES.
type EmailSender struct {
	client    SESService
	fromEmail string
	logger    logger.Logger
}

func NewEmailSender(ctx context.Context, region, fromEmail string, log logger.Logger) (*EmailSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &EmailSender{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
		logger:    log,
	}, nil
}

// NewEmailSenderWithClient injects a prebuilt SES client, used by tests.
func NewEmailSenderWithClient(client SESService, fromEmail string, log logger.Logger) *EmailSender {
	return &EmailSender{client: client, fromEmail: fromEmail, logger: log}
}

// Send delivers one email. Credential and account-level failures come
// back as terminal delivery errors; everything else is retryable.
func (s *EmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	if err != nil {
		return classifySendError(ChannelEmail, err)
	}
	return nil
}
