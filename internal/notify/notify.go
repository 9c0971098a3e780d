// Package notify tells guardians that a kid recorded a new completion.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"kidsvideohub/internal/logging"
)

// ReviewNotice describes a recording that awaits parent review
type ReviewNotice struct {
	OwnerEmail string
	KidName    string
	VideoURL   string
	Rewatch    bool
}

// sender is the part of the SES client used here
type sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends review notices via Amazon SES
type SESNotifier struct {
	client     sender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewSESNotifier creates a notifier. An empty fromEmail yields a disabled
// notifier that skips every send.
func NewSESNotifier(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*SESNotifier, error) {
	if fromEmail == "" {
		logging.Logger.Info().Msg("Email notifications disabled: SES_FROM_EMAIL not configured")
		return &SESNotifier{}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logging.Logger.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email notifications enabled")
	return newSESNotifier(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func newSESNotifier(client sender, fromEmail, fromName, appBaseURL string) *SESNotifier {
	return &SESNotifier{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}
}

// IsEnabled returns whether the notifier sends mail
func (n *SESNotifier) IsEnabled() bool {
	return n.enabled
}

// NotifyReview mails the guardian about a new recording
func (n *SESNotifier) NotifyReview(ctx context.Context, notice ReviewNotice) error {
	if !n.enabled {
		logging.Logger.Debug().Str("kid", notice.KidName).Msg("Skipping review notice (notifications disabled)")
		return nil
	}
	if notice.OwnerEmail == "" {
		logging.Logger.Debug().Str("kid", notice.KidName).Msg("Skipping review notice (no email on account)")
		return nil
	}

	subject, textBody, htmlBody := reviewMessage(notice, n.appBaseURL)
	return n.send(ctx, notice.OwnerEmail, subject, htmlBody, textBody)
}

func reviewMessage(notice ReviewNotice, appBaseURL string) (subject, textBody, htmlBody string) {
	verb := "finished a video"
	if notice.Rewatch {
		verb = "watched a video again"
	}
	subject = fmt.Sprintf("%s %s", notice.KidName, verb)

	textBody = fmt.Sprintf(`%s %s and left a voice recording.

Video: %s

Listen to the recording: %s

---
This is an automated email from Kids Video Hub. Please do not reply.
`, notice.KidName, verb, notice.VideoURL, appBaseURL)

	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p><strong>%s</strong> %s and left a voice recording.</p>
	<p>Video: <a href="%s">%s</a></p>
	<p><a href="%s">Listen to the recording</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from Kids Video Hub. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(notice.KidName), verb, html.EscapeString(notice.VideoURL), html.EscapeString(notice.VideoURL),
		html.EscapeString(appBaseURL))
	return subject, textBody, htmlBody
}

// send sends an email using Amazon SES
func (n *SESNotifier) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := n.fromEmail
	if n.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	logging.Logger.Info().Str("to", toEmail).Str("message_id", aws.ToString(result.MessageId)).Msg("Review notice sent")
	return nil
}
