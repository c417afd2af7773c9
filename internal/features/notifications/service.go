package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	"github.com/xyz-asif/oipet/internal/pkg/push"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

const (
	maxTitleLength   = 100
	maxMessageLength = 500
	maxTags          = 10
	maxDataKeys      = 20
	dispatchBatch    = 100
)

// Recipients is the slice of the user store notifications need.
type Recipients interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*auth.User, error)
	FindAll(ctx context.Context, filter auth.UserFilter) ([]auth.User, error)
	Update(ctx context.Context, id primitive.ObjectID, patch auth.UserPatch) (*auth.User, error)
}

type Options struct {
	Store Store
	Users Recipients
	// Push may be nil, in which case push.Noop is used.
	Push push.Sender
	// PushConcurrency bounds parallel sends during a broadcast.
	PushConcurrency int
	Now             func() time.Time
}

type Service struct {
	store       Store
	users       Recipients
	push        push.Sender
	concurrency int
	now         func() time.Time
}

var errNotificationNotFound = apperrors.NotFound("notification")

func NewService(opts Options) *Service {
	s := &Service{
		store:       opts.Store,
		users:       opts.Users,
		push:        opts.Push,
		concurrency: opts.PushConcurrency,
		now:         opts.Now,
	}
	if s.push == nil {
		s.push = push.Noop{}
	}
	if s.concurrency <= 0 {
		s.concurrency = 8
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) List(ctx context.Context, userID primitive.ObjectID, q ListQuery) (*ListResponse, error) {
	now := s.now()
	filter := Inbox(userID, now)
	filter.UnreadOnly = q.UnreadOnly
	if q.Type != "" {
		t := Type(strings.ToLower(q.Type))
		if !t.Valid() {
			return nil, apperrors.Validation("invalid notification type", "type must be one of: "+typeList())
		}
		filter.Type = t
	}

	page := pagination.Request{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListResponse{
		Items:       items,
		Pagination:  pagination.New(page.Page, page.Limit, total),
		UnreadCount: unread,
	}, nil
}

func typeList() string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// UnreadCount ignores expired notifications.
func (s *Service) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := Inbox(userID, s.now())
	filter.UnreadOnly = true
	return s.store.Count(ctx, filter)
}

func (s *Service) Stats(ctx context.Context, userID primitive.ObjectID) (*Stats, error) {
	all, err := s.store.FindAll(ctx, Inbox(userID, s.now()))
	if err != nil {
		return nil, err
	}
	st := &Stats{Total: int64(len(all)), ByType: map[Type]int{}}
	for _, n := range all {
		if !n.IsRead {
			st.Unread++
		}
		st.ByType[n.Type]++
	}
	return st, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*Notification, error) {
	n, err := s.store.MarkRead(ctx, id, userID, s.now())
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errNotificationNotFound
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID, s.now())
}

func (s *Service) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	deleted, err := s.store.DeleteOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return errNotificationNotFound
	}
	return nil
}

// Send stores a notification for one user and pushes it right away unless
// it is scheduled for later.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Notification, error) {
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	now := s.now()
	content, err := normalizeContent(req.Content, now)
	if err != nil {
		return nil, err
	}

	n := build(user.ID, content, now)
	if err := s.store.Create(ctx, &n); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("notification sent",
		zap.String("notification_id", n.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
		zap.String("type", string(n.Type)))

	if pushNow(&n, now) {
		s.deliver(ctx, &n, user)
	}
	return &n, nil
}

// Broadcast addresses every active user, or only admins.
func (s *Service) Broadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error) {
	now := s.now()
	content, err := normalizeContent(req.Content, now)
	if err != nil {
		return nil, err
	}

	filter := auth.UserFilter{IsActive: auth.Bool(true)}
	if req.AdminsOnly {
		filter.IsAdmin = auth.Bool(true)
	}
	users, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	batch := make([]Notification, 0, len(users))
	for _, u := range users {
		batch = append(batch, build(u.ID, content, now))
	}
	if err := s.store.CreateMany(ctx, batch); err != nil {
		return nil, err
	}

	var pushed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range batch {
		n, u := &batch[i], &users[i]
		if !pushNow(n, now) {
			continue
		}
		g.Go(func() error {
			if s.deliver(ctx, n, u) {
				pushed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.FromContext(ctx).Info("notification broadcast",
		zap.Int("recipients", len(batch)),
		zap.Int64("pushed", pushed.Load()),
		zap.Bool("admins_only", req.AdminsOnly))
	return &BroadcastResult{Recipients: len(batch), Pushed: int(pushed.Load())}, nil
}

// Cleanup removes expired notifications.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("expired notifications removed", zap.Int64("deleted", deleted))
	return deleted, nil
}

// DispatchDue pushes notifications whose scheduled time has passed, and
// earlier failures that still have attempts left. It returns how many were
// delivered.
func (s *Service) DispatchDue(ctx context.Context) (int, error) {
	due, err := s.store.DuePush(ctx, s.now(), dispatchBatch)
	if err != nil {
		return 0, err
	}

	users := map[primitive.ObjectID]*auth.User{}
	delivered := 0
	for i := range due {
		n := &due[i]
		u, ok := users[n.UserID]
		if !ok {
			if u, err = s.users.FindByID(ctx, n.UserID); err != nil {
				return delivered, err
			}
			users[n.UserID] = u
		}
		if u == nil || !u.IsActive {
			// Nobody to deliver to; burn the attempts so it is not picked up again.
			for r := n.RetryCount; r < MaxRetries; r++ {
				if err := s.store.IncrementRetry(ctx, n.ID); err != nil {
					return delivered, err
				}
			}
			continue
		}
		if s.deliver(ctx, n, u) {
			delivered++
		}
	}
	return delivered, nil
}

// Count backs the admin dashboard.
func (s *Service) Count(ctx context.Context, filter Filter) (int64, error) {
	return s.store.Count(ctx, filter)
}

// DeleteAllForUser empties the inbox of userID.
func (s *Service) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.store.DeleteByUser(ctx, userID)
}

func pushNow(n *Notification, now time.Time) bool {
	return n.HasChannel(ChannelPush) && (n.ScheduledFor == nil || !n.ScheduledFor.After(now))
}

// deliver makes one push attempt. Failures are recorded on the
// notification and never returned: the request that triggered the push has
// already succeeded.
func (s *Service) deliver(ctx context.Context, n *Notification, user *auth.User) bool {
	lg := logger.FromContext(ctx).With(
		zap.String("notification_id", n.ID.Hex()),
		zap.String("user_id", user.ID.Hex()))

	err := s.push.Send(ctx, push.Message{
		Token:    user.FCMToken,
		Title:    n.Title,
		Body:     n.Message,
		Data:     pushData(n),
		Priority: string(n.Priority),
	})
	if err == nil {
		at := s.now()
		if err := s.store.MarkDelivered(ctx, n.ID, at); err != nil {
			lg.Warn("push sent but not marked delivered", zap.Error(err))
			return true
		}
		n.IsDelivered, n.DeliveredAt = true, &at
		return true
	}

	if errors.Is(err, push.ErrInvalidDeviceToken) && user.FCMToken != "" {
		if _, uerr := s.users.Update(ctx, user.ID, auth.UserPatch{FCMToken: auth.String("")}); uerr != nil {
			lg.Warn("stale device token not cleared", zap.Error(uerr))
		}
	}
	if rerr := s.store.IncrementRetry(ctx, n.ID); rerr != nil {
		lg.Warn("push retry not recorded", zap.Error(rerr))
	}
	n.RetryCount++
	lg.Warn("push failed", zap.Int("retry_count", n.RetryCount), zap.Error(err))
	return false
}

func pushData(n *Notification) map[string]string {
	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["notificationId"] = n.ID.Hex()
	data["type"] = string(n.Type)
	return data
}

func build(userID primitive.ObjectID, c Content, now time.Time) Notification {
	n := Notification{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Title:        c.Title,
		Message:      c.Message,
		Type:         c.Type,
		Category:     c.Category,
		Priority:     c.Priority,
		ScheduledFor: c.ScheduledFor,
		ExpiresAt:    *c.ExpiresAt,
		Channels:     append([]Channel{}, c.Channels...),
		Data:         c.Data,
		Tags:         append([]string{}, c.Tags...),
		CreatedAt:    now,
	}
	if !n.HasChannel(ChannelPush) {
		// Storing it is the whole delivery for in-app only notifications.
		n.IsDelivered = true
		n.DeliveredAt = &now
	}
	return n
}

// normalizeContent applies defaults and validates. The returned Content
// always has ExpiresAt set.
func normalizeContent(c Content, now time.Time) (Content, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Message = strings.TrimSpace(c.Message)
	c.Category = strings.TrimSpace(c.Category)
	c.Type = Type(strings.ToLower(string(c.Type)))
	c.Priority = Priority(strings.ToLower(string(c.Priority)))
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if c.ExpiresAt == nil {
		exp := now.Add(DefaultTTL)
		c.ExpiresAt = &exp
	}

	seen := map[Channel]bool{}
	channels := make([]Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		ch = Channel(strings.ToLower(string(ch)))
		if !seen[ch] {
			seen[ch] = true
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		channels = []Channel{ChannelInApp}
	}
	c.Channels = channels

	var details []string
	if n := utf8.RuneCountInString(c.Title); n == 0 || n > maxTitleLength {
		details = append(details, fmt.Sprintf("title must be 1 to %d characters", maxTitleLength))
	}
	if n := utf8.RuneCountInString(c.Message); n == 0 || n > maxMessageLength {
		details = append(details, fmt.Sprintf("message must be 1 to %d characters", maxMessageLength))
	}
	if !c.Type.Valid() {
		details = append(details, "type must be one of: "+typeList())
	}
	if !c.Priority.Valid() {
		details = append(details, "priority must be one of: low, medium, high, urgent")
	}
	for _, ch := range c.Channels {
		if !ch.Valid() {
			details = append(details, "channels must be any of: push, email, sms, in_app")
			break
		}
	}
	if utf8.RuneCountInString(c.Category) > 50 {
		details = append(details, "category must be at most 50 characters")
	}
	if len(c.Tags) > maxTags {
		details = append(details, fmt.Sprintf("tags accepts at most %d items", maxTags))
	}
	if len(c.Data) > maxDataKeys {
		details = append(details, fmt.Sprintf("data accepts at most %d keys", maxDataKeys))
	}
	if !c.ExpiresAt.After(now) {
		details = append(details, "expiresAt must be in the future")
	}
	if c.ScheduledFor != nil && !c.ScheduledFor.Before(*c.ExpiresAt) {
		details = append(details, "scheduledFor must be before expiresAt")
	}

	if len(details) > 0 {
		return Content{}, apperrors.Validation("validation failed", details...)
	}
	return c, nil
}
