package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"ForestWatch/pkg/postgres"
)

type IWhatsappSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) (string, error)
	Disconnect() error
	IsConnected() bool
}

type whatsappSender struct {
	client *whatsmeow.Client
}

// New opens the device store in Postgres and connects the linked device. On
// first run the pairing QR code is printed through the logger.
func New(ctx context.Context, db postgres.Config, logger *logrus.Logger) (IWhatsappSender, error) {
	dbLog := NewLogger(logger, "Database")
	container, err := sqlstore.New(ctx, postgres.Dialect, postgres.FormatDSN(db), dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, NewLogger(logger, "Client"))

	connected := make(chan struct{}, 1)
	client.AddEventHandler(func(evt interface{}) {
		if _, ok := evt.(*events.Connected); ok {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get QR channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					logger.Infof("Scan this WhatsApp QR code to link the device: %s", evt.Code)
				}
			}
		}()
	} else {
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
	}

	select {
	case <-connected:
		logger.Info("WhatsApp connected")
	case <-time.After(60 * time.Second):
		client.Disconnect()
		return nil, errors.New("connection timeout")
	case <-ctx.Done():
		client.Disconnect()
		return nil, ctx.Err()
	}

	return &whatsappSender{
		client: client,
	}, nil
}

// SendMessage sends a plain text message and returns the WhatsApp message id.
func (w *whatsappSender) SendMessage(ctx context.Context, phoneNumber, message string) (string, error) {
	jid := types.NewJID(NormalizePhoneNumber(phoneNumber), types.DefaultUserServer)

	waMsg := &waE2E.Message{
		Conversation: proto.String(message),
	}

	resp, err := w.client.SendMessage(ctx, jid, waMsg)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return resp.ID, nil
}

func (w *whatsappSender) Disconnect() error {
	w.client.Disconnect()
	return nil
}

func (w *whatsappSender) IsConnected() bool {
	return w.client.IsConnected()
}

// NormalizePhoneNumber strips the "whatsapp:" scheme, "+" and separators so
// that "whatsapp:+91 98765-43210" becomes "919876543210".
func NormalizePhoneNumber(phoneNumber string) string {
	phoneNumber = strings.TrimPrefix(strings.TrimSpace(phoneNumber), "whatsapp:")
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
