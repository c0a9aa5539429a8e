package twilio

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type ITwilio interface {
	SendMessage(ctx context.Context, to, message string) (string, error)
	Close() error
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type twilioSender struct {
	api  messageCreator
	from string
}

func New(accountSID, authToken, from string) (ITwilio, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio account SID and auth token are required")
	}
	if from == "" {
		return nil, errors.New("twilio sender number is required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &twilioSender{
		api:  client.Api,
		from: from,
	}, nil
}

// SendMessage creates one message and returns its SID. No retry is attempted.
func (t *twilioSender) SendMessage(ctx context.Context, to, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if resp == nil || resp.Sid == nil {
		return "", errors.New("twilio returned no message SID")
	}

	return *resp.Sid, nil
}

func (t *twilioSender) Close() error {
	return nil
}
