// Package notify delivers fire-and-forget user notifications. Delivery
// failures are logged and never returned to the caller.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier sends a notification to one user.
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, body string)
}

// Message is the payload published for every notification.
type Message struct {
	RecipientID string    `json:"recipientId"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sentAt"`
}

// RedisNotifier publishes notifications on a pub/sub channel for the
// delivery worker.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, channel string, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, log: log}
}

func (n *RedisNotifier) Notify(ctx context.Context, recipientID, title, body string) {
	event, err := json.Marshal(Message{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		n.log.Warn("encode notification failed", zap.Error(err))
		return
	}

	if err := n.rdb.Publish(ctx, n.channel, event).Err(); err != nil {
		n.log.Warn("publish notification failed",
			zap.String("channel", n.channel),
			zap.String("recipient_id", recipientID),
			zap.Error(err))
	}
}

// LogNotifier only logs notifications. Used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, recipientID, title, body string) {
	n.log.Info("notification",
		zap.String("recipient_id", recipientID),
		zap.String("title", title),
		zap.String("body", body))
}
