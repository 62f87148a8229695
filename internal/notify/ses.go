package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailSender is the part of the SES client used here.
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(cfg), nil
}

// SESNotifier emails the event recipient. Events with no recipient are
// skipped.
type SESNotifier struct {
	client EmailSender
	from   string
}

func NewSESNotifier(client EmailSender, from string) *SESNotifier {
	return &SESNotifier{client: client, from: from}
}

func (n *SESNotifier) Name() string { return "ses" }

func (n *SESNotifier) Notify(ctx context.Context, e Event) error {
	if e.Recipient == "" {
		return nil
	}
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{e.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject())},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(e.Body())},
			},
		},
		Source: aws.String(n.from),
	})
	return err
}
