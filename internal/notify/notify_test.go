package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestDisabledNotifierSkips(t *testing.T) {
	n, err := NewSESNotifier(context.Background(), "us-east-1", "", "", "")
	require.NoError(t, err)
	assert.False(t, n.IsEnabled())
	assert.NoError(t, n.NotifyReview(context.Background(), ReviewNotice{OwnerEmail: "p@example.com"}))
}

func TestNotifyReviewSendsMail(t *testing.T) {
	fake := &fakeSender{}
	n := newSESNotifier(fake, "hub@example.com", "Kids Video Hub", "https://hub.example.com")

	err := n.NotifyReview(context.Background(), ReviewNotice{
		OwnerEmail: "parent@example.com",
		KidName:    "Mia",
		VideoURL:   "https://youtu.be/abc",
	})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	input := fake.inputs[0]
	assert.Equal(t, "Kids Video Hub <hub@example.com>", aws.ToString(input.FromEmailAddress))
	assert.Equal(t, []string{"parent@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Mia finished a video", aws.ToString(input.Content.Simple.Subject.Data))
	assert.True(t, strings.Contains(aws.ToString(input.Content.Simple.Body.Text.Data), "https://youtu.be/abc"))
}

func TestNotifyReviewSkipsAccountsWithoutEmail(t *testing.T) {
	fake := &fakeSender{}
	n := newSESNotifier(fake, "hub@example.com", "", "")

	require.NoError(t, n.NotifyReview(context.Background(), ReviewNotice{KidName: "Mia"}))
	assert.Empty(t, fake.inputs)
}

func TestNotifyReviewWrapsSendErrors(t *testing.T) {
	fake := &fakeSender{err: errors.New("throttled")}
	n := newSESNotifier(fake, "hub@example.com", "", "")

	err := n.NotifyReview(context.Background(), ReviewNotice{OwnerEmail: "p@example.com", KidName: "Leo", Rewatch: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p@example.com")
	assert.Equal(t, "Leo watched a video again", aws.ToString(fake.inputs[0].Content.Simple.Subject.Data))
}
