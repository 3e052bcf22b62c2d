package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	tokenProvider := &token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	}

	client := apns2.NewTokenClient(tokenProvider)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{
		client: client,
		topic:  topic,
	}, nil
}

// Send pushes to each token in turn. APNs has no batch endpoint.
func (a *APNSProvider) Send(ctx context.Context, notification *Notification) ([]*Result, error) {
	results := make([]*Result, 0, len(notification.Tokens))

	for _, deviceToken := range notification.Tokens {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		response, err := a.client.PushWithContext(ctx, buildAPNSNotification(notification, deviceToken, a.topic))
		if err != nil {
			results = append(results, &Result{Token: deviceToken, Error: err.Error()})
			continue
		}

		result := &Result{Token: deviceToken, MessageID: response.ApnsID, Success: response.Sent()}
		if !result.Success {
			result.Error = response.Reason
			result.Unregistered = response.Reason == apns2.ReasonUnregistered ||
				response.Reason == apns2.ReasonBadDeviceToken
		}
		results = append(results, result)
	}

	return results, nil
}

func buildAPNSNotification(notification *Notification, deviceToken, topic string) *apns2.Notification {
	aps := map[string]interface{}{
		"alert": map[string]interface{}{
			"title": notification.Title,
			"body":  notification.Body,
		},
		"sound": "default",
	}
	if notification.Badge > 0 {
		aps["badge"] = notification.Badge
	}

	payload := map[string]interface{}{"aps": aps}
	for key, value := range notification.Data {
		payload[key] = value
	}

	n := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       topic,
		Payload:     payload,
		CollapseID:  notification.CollapseKey,
		Priority:    apns2.PriorityLow,
	}
	if notification.HighPriority {
		n.Priority = apns2.PriorityHigh
	}

	return n
}
