package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/xyz-asif/oipet/internal/pkg/logger"
)

// Message is a provider neutral push payload.
type Message struct {
	Token    string
	Title    string
	Body     string
	Data     map[string]string
	Priority string
}

// ErrInvalidDeviceToken means the device token is unknown to the provider
// and should be dropped from the user.
var ErrInvalidDeviceToken = errors.New("push: device token is no longer valid")

// Sender delivers a push message to one device.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FCM sends through Firebase Cloud Messaging.
type FCM struct {
	client *messaging.Client
}

// NewFCM initializes the Firebase Admin SDK from a service account file.
func NewFCM(ctx context.Context, credentialsPath string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}
	return &FCM{client: client}, nil
}

func (f *FCM) Send(ctx context.Context, msg Message) error {
	if msg.Token == "" {
		return ErrInvalidDeviceToken
	}

	androidPriority := "normal"
	if msg.Priority == "high" || msg.Priority == "urgent" {
		androidPriority = "high"
	}

	_, err := f.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data:    msg.Data,
		Android: &messaging.AndroidConfig{Priority: androidPriority},
	})
	if err != nil {
		if messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err) {
			return ErrInvalidDeviceToken
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// Noop logs instead of sending. Used when Firebase is not configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, msg Message) error {
	logger.FromContext(ctx).Debug("push skipped, no provider configured",
		zap.String("title", msg.Title),
	)
	return nil
}
