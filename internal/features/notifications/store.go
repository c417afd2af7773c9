package notifications

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

// Store persists notifications. Owned methods match id and recipient in a
// single filter.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	CreateMany(ctx context.Context, ns []Notification) error

	List(ctx context.Context, filter Filter, page pagination.Request) ([]Notification, int64, error)
	FindAll(ctx context.Context, filter Filter) ([]Notification, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// MarkRead returns (nil, nil) when the user has no such notification.
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (*Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error)
	DeleteOwned(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)

	// DuePush lists undelivered push notifications whose time has come and
	// that still have attempts left, oldest first.
	DuePush(ctx context.Context, now time.Time, limit int) ([]Notification, error)
	MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) error
	IncrementRetry(ctx context.Context, id primitive.ObjectID) error
}

// Filter selects notifications. A nil UserID matches every recipient.
type Filter struct {
	UserID     *primitive.ObjectID
	UnreadOnly bool
	Type       Type
	// LiveAt hides notifications that expired at or before it.
	LiveAt       time.Time
	CreatedAfter time.Time
}

// Inbox is the filter for a user's visible notifications at now.
func Inbox(userID primitive.ObjectID, now time.Time) Filter {
	return Filter{UserID: &userID, LiveAt: now}
}

func (f Filter) BSON() bson.M {
	m := bson.M{}
	if f.UserID != nil {
		m["userId"] = *f.UserID
	}
	if f.UnreadOnly {
		m["isRead"] = false
	}
	if f.Type != "" {
		m["type"] = f.Type
	}
	if !f.LiveAt.IsZero() {
		m["expiresAt"] = bson.M{"$gt": f.LiveAt}
	}
	if !f.CreatedAfter.IsZero() {
		m["createdAt"] = bson.M{"$gte": f.CreatedAfter}
	}
	return m
}

func (f Filter) Match(n *Notification) bool {
	if f.UserID != nil && n.UserID != *f.UserID {
		return false
	}
	if f.UnreadOnly && n.IsRead {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if !f.LiveAt.IsZero() && !n.ExpiresAt.After(f.LiveAt) {
		return false
	}
	if !f.CreatedAfter.IsZero() && n.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	return true
}

// duePush mirrors the DuePush query for the in-memory store.
func duePush(n *Notification, now time.Time) bool {
	if n.IsDelivered || n.RetryCount >= MaxRetries || !n.HasChannel(ChannelPush) {
		return false
	}
	if !n.ExpiresAt.After(now) {
		return false
	}
	return n.ScheduledFor == nil || !n.ScheduledFor.After(now)
}
