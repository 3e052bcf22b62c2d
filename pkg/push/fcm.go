package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the maximum number of tokens per multicast call.
const fcmBatchLimit = 500

type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(ctx context.Context, credentialsFile string) (*FCMProvider, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{
		client: client,
	}, nil
}

func (f *FCMProvider) Send(ctx context.Context, notification *Notification) ([]*Result, error) {
	results := make([]*Result, 0, len(notification.Tokens))

	for start := 0; start < len(notification.Tokens); start += fcmBatchLimit {
		end := start + fcmBatchLimit
		if end > len(notification.Tokens) {
			end = len(notification.Tokens)
		}
		tokens := notification.Tokens[start:end]

		batch, err := f.client.SendEachForMulticast(ctx, buildMulticastMessage(notification, tokens))
		if err != nil {
			return results, fmt.Errorf("failed to send FCM notifications: %w", err)
		}

		for i, response := range batch.Responses {
			result := &Result{Token: tokens[i], Success: response.Success, MessageID: response.MessageID}
			if response.Error != nil {
				result.Error = response.Error.Error()
				result.Unregistered = messaging.IsUnregistered(response.Error) || messaging.IsInvalidArgument(response.Error)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

func buildMulticastMessage(notification *Notification, tokens []string) *messaging.MulticastMessage {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   notification.Data,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Android: &messaging.AndroidConfig{
			CollapseKey: notification.CollapseKey,
			Priority:    "normal",
		},
	}

	if notification.HighPriority {
		message.Android.Priority = "high"
	}

	if notification.Badge > 0 {
		badge := notification.Badge
		message.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Badge: &badge},
			},
		}
	}

	return message
}
