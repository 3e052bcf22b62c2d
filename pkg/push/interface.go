package push

import "context"

type PushProvider interface {
	// Send delivers the notification to every token and reports a result per
	// token, in order. An error means the batch as a whole failed.
	Send(ctx context.Context, notification *Notification) ([]*Result, error)
}

type Notification struct {
	Tokens       []string          `json:"tokens"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"`
	Badge        int               `json:"badge,omitempty"`
	CollapseKey  string            `json:"collapse_key,omitempty"`
	HighPriority bool              `json:"high_priority,omitempty"`
}

type Result struct {
	Token     string `json:"token"`
	MessageID string `json:"message_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	// Unregistered is set when the provider reports the token as no longer
	// valid, so it can be removed from the user.
	Unregistered bool `json:"unregistered,omitempty"`
}
