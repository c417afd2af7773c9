package notifications

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

type Type string

const (
	TypeFeeding   Type = "feeding"
	TypeHealth    Type = "health"
	TypeNews      Type = "news"
	TypeSystem    Type = "system"
	TypeReminder  Type = "reminder"
	TypeAlert     Type = "alert"
	TypePromotion Type = "promotion"
)

var types = []Type{TypeFeeding, TypeHealth, TypeNews, TypeSystem, TypeReminder, TypeAlert, TypePromotion}

func (t Type) Valid() bool {
	for _, v := range types {
		if t == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

const (
	// DefaultTTL is how long a notification stays listed when no expiry is
	// given.
	DefaultTTL = 30 * 24 * time.Hour
	// MaxRetries bounds push attempts per notification.
	MaxRetries = 3
)

// Notification is addressed to exactly one user.
type Notification struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Title        string             `bson:"title" json:"title"`
	Message      string             `bson:"message" json:"message"`
	Type         Type               `bson:"type" json:"type"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	Priority     Priority           `bson:"priority" json:"priority"`
	IsRead       bool               `bson:"isRead" json:"isRead"`
	ReadAt       *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	IsDelivered  bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt  *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	ScheduledFor *time.Time         `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
	Channels     []Channel          `bson:"channels" json:"channels"`
	Data         map[string]string  `bson:"data,omitempty" json:"data,omitempty"`
	Tags         []string           `bson:"tags" json:"tags"`
	RetryCount   int                `bson:"retryCount" json:"retryCount"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasChannel reports whether n is routed through c.
func (n *Notification) HasChannel(c Channel) bool {
	for _, ch := range n.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// Request DTOs

// Content is shared by send and broadcast.
type Content struct {
	Title        string            `json:"title" binding:"required" example:"Vaccine due"`
	Message      string            `json:"message" binding:"required" example:"Rex is due for the rabies booster"`
	Type         Type              `json:"type" binding:"required" example:"reminder"`
	Category     string            `json:"category" example:"vaccination"`
	Priority     Priority          `json:"priority" example:"high"`
	Channels     []Channel         `json:"channels" example:"push,in_app"`
	Data         map[string]string `json:"data"`
	Tags         []string          `json:"tags"`
	ScheduledFor *time.Time        `json:"scheduledFor"`
	ExpiresAt    *time.Time        `json:"expiresAt"`
}

type SendRequest struct {
	UserID string `json:"userId" binding:"required" example:"65f1c0ffee0000000000abcd"`
	Content
}

type BroadcastRequest struct {
	Content
	// AdminsOnly narrows the audience to administrators.
	AdminsOnly bool `json:"adminsOnly"`
}

type ListQuery struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	UnreadOnly bool   `form:"unreadOnly"`
	Type       string `form:"type"`
}

// Response DTOs

type ListResponse struct {
	Items       []Notification         `json:"items"`
	Pagination  *pagination.Pagination `json:"pagination"`
	UnreadCount int64                  `json:"unreadCount"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}

type MarkAllReadResponse struct {
	MarkedCount int64 `json:"markedCount"`
}

type Stats struct {
	Total  int64        `json:"total"`
	Unread int64        `json:"unread"`
	ByType map[Type]int `json:"byType"`
}

type BroadcastResult struct {
	Recipients int `json:"recipients"`
	Pushed     int `json:"pushed"`
}

type CleanupResult struct {
	Deleted int64 `json:"deleted"`
}
