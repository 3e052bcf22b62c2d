package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/pkg/logger"
	"carpool/pkg/push"
	"carpool/pkg/websocket"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pushPreviewLength = 100

// MessageNotifier is told about every recorded message. It is a delivery
// side channel: its failures never undo or fail the message itself.
type MessageNotifier interface {
	NotifyNewMessage(ctx context.Context, chat *models.Chat, msg *models.Message) error
}

// NotifierGroup fans one notification out to several notifiers.
type NotifierGroup []MessageNotifier

func (g NotifierGroup) NotifyNewMessage(ctx context.Context, chat *models.Chat, msg *models.Message) error {
	var errs []error
	for _, n := range g {
		if err := n.NotifyNewMessage(ctx, chat, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newChatEvent(chat *models.Chat, msg *models.Message) *models.ChatEvent {
	return &models.ChatEvent{
		Type:       models.ChatEventNewMessage,
		ChatID:     chat.ID,
		Message:    msg,
		Recipients: chat.Participants,
	}
}

// HubNotifier delivers chat events to websocket clients connected to this
// instance.
type HubNotifier struct {
	hub *websocket.Hub
}

func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(_ context.Context, chat *models.Chat, msg *models.Message) error {
	n.Deliver(newChatEvent(chat, msg))
	return nil
}

// Deliver sends the event to every listed recipient's connections.
func (n *HubNotifier) Deliver(event *models.ChatEvent) {
	wsMessage := websocket.Message{
		Type:      event.Type,
		Timestamp: time.Now().Unix(),
		Data:      event,
	}
	for _, userID := range event.Recipients {
		n.hub.SendToUser(userID, wsMessage)
	}
}

// EventBus is the Redis pub/sub surface used to share chat events between
// instances.
type EventBus interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisNotifier publishes chat events on a shared channel. Every instance
// runs Listen to forward events from the channel to its own hub.
type RedisNotifier struct {
	bus     EventBus
	channel string
	local   *HubNotifier
	logger  *logger.Logger
}

func NewRedisNotifier(bus EventBus, channel string, local *HubNotifier, logger *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		bus:     bus,
		channel: channel,
		local:   local,
		logger:  logger,
	}
}

func (n *RedisNotifier) NotifyNewMessage(ctx context.Context, chat *models.Chat, msg *models.Message) error {
	if err := n.bus.Publish(ctx, n.channel, newChatEvent(chat, msg)); err != nil {
		return fmt.Errorf("failed to publish chat event: %w", err)
	}
	return nil
}

// Listen forwards events from the shared channel to the local hub until ctx
// is cancelled.
func (n *RedisNotifier) Listen(ctx context.Context) error {
	pubsub := n.bus.Subscribe(ctx, n.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-messages:
			if !ok {
				return nil
			}
			var event models.ChatEvent
			if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
				n.logger.WithError(err).Warn("Dropping malformed chat event")
				continue
			}
			n.local.Deliver(&event)
		}
	}
}

// PushNotifier sends a mobile push to every recipient's registered devices.
type PushNotifier struct {
	users  interfaces.UserRepository
	fcm    push.PushProvider
	apns   push.PushProvider
	logger *logger.Logger
}

// NewPushNotifier accepts nil providers for platforms that are not
// configured.
func NewPushNotifier(users interfaces.UserRepository, fcm, apns push.PushProvider, logger *logger.Logger) *PushNotifier {
	return &PushNotifier{
		users:  users,
		fcm:    fcm,
		apns:   apns,
		logger: logger,
	}
}

func (n *PushNotifier) NotifyNewMessage(ctx context.Context, chat *models.Chat, msg *models.Message) error {
	recipients := chat.Recipients(msg.Sender)
	if len(recipients) == 0 {
		return nil
	}

	users, err := n.users.GetUsersByIDs(ctx, append(recipients, msg.Sender))
	if err != nil {
		return fmt.Errorf("failed to load push recipients: %w", err)
	}

	title := "New message"
	var fcmTokens, apnsTokens []string
	for _, u := range users {
		if u.ID == msg.Sender {
			title = u.Name
			continue
		}
		fcmTokens = append(fcmTokens, u.DeviceTokens.FCM...)
		apnsTokens = append(apnsTokens, u.DeviceTokens.APNS...)
	}

	notification := push.Notification{
		Title: title,
		Body:  preview(msg.Content, pushPreviewLength),
		Data: map[string]string{
			"type":      models.ChatEventNewMessage,
			"chatId":    chat.ID.Hex(),
			"messageId": msg.ID.Hex(),
		},
		CollapseKey:  "chat_" + chat.ID.Hex(),
		HighPriority: true,
	}

	var errs []error
	if n.fcm != nil && len(fcmTokens) > 0 {
		fcmNotification := notification
		fcmNotification.Tokens = fcmTokens
		errs = append(errs, n.send(ctx, n.fcm, models.DevicePlatformFCM, &fcmNotification))
	}
	if n.apns != nil && len(apnsTokens) > 0 {
		apnsNotification := notification
		apnsNotification.Tokens = apnsTokens
		errs = append(errs, n.send(ctx, n.apns, models.DevicePlatformAPNS, &apnsNotification))
	}

	return errors.Join(errs...)
}

func (n *PushNotifier) send(ctx context.Context, provider push.PushProvider, platform models.DevicePlatform, notification *push.Notification) error {
	results, err := provider.Send(ctx, notification)
	if err != nil {
		return fmt.Errorf("%s push failed: %w", platform, err)
	}

	for _, result := range results {
		if !result.Unregistered {
			continue
		}
		if err := n.users.RemoveDeviceToken(ctx, platform, result.Token); err != nil {
			n.logger.WithError(err).WithField("platform", string(platform)).Warn("Failed to remove stale device token")
		}
	}

	return nil
}

func preview(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit-1]) + "…"
}

// dispatchNotification runs the notifier off the request path with its own
// deadline, logging any failure.
func dispatchNotification(ctx context.Context, notifier MessageNotifier, log *logger.Logger, chat *models.Chat, msg *models.Message, timeout time.Duration) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	go func() {
		defer cancel()
		if err := notifier.NotifyNewMessage(ctx, chat, msg); err != nil {
			log.WithContext(ctx).WithChatID(chat.ID).WithError(err).Warn("Message notification failed")
		}
	}()
}

func userIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
