package admin

import (
	"context"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/features/health"
	"github.com/xyz-asif/oipet/internal/features/notifications"
	"github.com/xyz-asif/oipet/internal/features/pets"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type PetAdmin interface {
	AdminStats(ctx context.Context) (*pets.Stats, error)
	Count(ctx context.Context, filter pets.Filter) (int64, error)
	DeleteAllForOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error)
}

type RecordAdmin interface {
	Count(ctx context.Context, filter health.Filter) (int64, error)
	TopOwners(ctx context.Context, since time.Time, limit int) ([]health.OwnerActivity, error)
	DeleteAllForOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error)
}

type NotificationAdmin interface {
	Count(ctx context.Context, filter notifications.Filter) (int64, error)
	DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type Options struct {
	Users         auth.UserStore
	Pets          PetAdmin
	Records       RecordAdmin
	Notifications NotificationAdmin
	Now           func() time.Time
}

type Service struct {
	users         auth.UserStore
	pets          PetAdmin
	records       RecordAdmin
	notifications NotificationAdmin
	now           func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:         opts.Users,
		pets:          opts.Pets,
		records:       opts.Records,
		notifications: opts.Notifications,
		now:           opts.Now,
	}
}

// Dashboard runs every count concurrently; the first failure wins.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	monthAgo := now.AddDate(0, 0, -30)
	weekAgo := now.AddDate(0, 0, -7)

	d := &Dashboard{}
	g, ctx := errgroup.WithContext(ctx)

	countUsers := func(dst *int64, f auth.UserFilter) {
		g.Go(func() error {
			n, err := s.users.Count(ctx, f)
			*dst = n
			return err
		})
	}
	countUsers(&d.Users.Total, auth.UserFilter{})
	countUsers(&d.Users.Active, auth.UserFilter{IsActive: auth.Bool(true)})
	countUsers(&d.Users.Admins, auth.UserFilter{IsAdmin: auth.Bool(true)})
	countUsers(&d.Users.Verified, auth.UserFilter{IsEmailVerified: auth.Bool(true)})
	countUsers(&d.Users.NewLast30d, auth.UserFilter{CreatedAfter: &monthAgo})

	g.Go(func() error {
		st, err := s.pets.AdminStats(ctx)
		if err != nil {
			return err
		}
		d.Pets = PetCounts{Total: st.Total, BySpecies: st.BySpecies}
		return nil
	})
	g.Go(func() (err error) {
		d.HealthRecords.Total, err = s.records.Count(ctx, health.Filter{})
		return err
	})
	g.Go(func() (err error) {
		d.HealthRecords.Last7d, err = s.records.Count(ctx, health.Filter{From: weekAgo})
		return err
	})
	g.Go(func() (err error) {
		d.Notifications.Total, err = s.notifications.Count(ctx, notifications.Filter{})
		return err
	})
	g.Go(func() (err error) {
		d.Notifications.Unread, err = s.notifications.Count(ctx, notifications.Filter{UnreadOnly: true})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

const topUsersLimit = 10

// Report summarises activity over the daily, weekly or monthly window
// ending now.
func (s *Service) Report(ctx context.Context, period ReportPeriod) (*Report, error) {
	days := period.Days()
	if days == 0 {
		return nil, apperrors.Validation("period must be one of: daily, weekly, monthly")
	}

	now := s.now()
	from := now.AddDate(0, 0, -days)
	rep := &Report{Period: period, From: from, To: now, GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	countUsers := func(dst *int64, f auth.UserFilter) {
		g.Go(func() (err error) {
			*dst, err = s.users.Count(gctx, f)
			return err
		})
	}
	loginSince := func(d int) *time.Time {
		t := now.AddDate(0, 0, -d)
		return &t
	}

	countUsers(&rep.Usage.UserRegistrations, auth.UserFilter{CreatedAfter: &from})
	countUsers(&rep.Engagement.TotalUsers, auth.UserFilter{})
	countUsers(&rep.Engagement.ActiveUsers.Daily, auth.UserFilter{LastLoginAfter: loginSince(1)})
	countUsers(&rep.Engagement.ActiveUsers.Weekly, auth.UserFilter{LastLoginAfter: loginSince(7)})
	countUsers(&rep.Engagement.ActiveUsers.Monthly, auth.UserFilter{LastLoginAfter: loginSince(30)})
	g.Go(func() (err error) {
		rep.Usage.PetRegistrations, err = s.pets.Count(gctx, pets.Filter{CreatedAfter: from})
		return err
	})
	g.Go(func() (err error) {
		rep.Usage.HealthRecords, err = s.records.Count(gctx, health.Filter{CreatedAfter: from})
		return err
	})
	g.Go(func() (err error) {
		rep.Usage.Notifications, err = s.notifications.Count(gctx, notifications.Filter{CreatedAfter: from})
		return err
	})

	var top []health.OwnerActivity
	g.Go(func() (err error) {
		top, err = s.records.TopOwners(gctx, from, topUsersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	u := &rep.Usage
	u.TotalActivity = u.UserRegistrations + u.PetRegistrations + u.HealthRecords + u.Notifications

	e := &rep.Engagement
	e.Retention = Retention{
		Day1:  percent(e.ActiveUsers.Daily, e.TotalUsers),
		Day7:  percent(e.ActiveUsers.Weekly, e.TotalUsers),
		Day30: percent(e.ActiveUsers.Monthly, e.TotalUsers),
	}

	rep.TopUsers = make([]TopUser, 0, len(top))
	for _, a := range top {
		user, err := s.users.FindByID(ctx, a.OwnerID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		rep.TopUsers = append(rep.TopUsers, TopUser{
			UserID:       user.ID.Hex(),
			Name:         user.Name,
			Email:        user.Email,
			RecordCount:  a.RecordCount,
			LastActivity: a.LastActivity,
		})
	}
	return rep, nil
}

func percent(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func (s *Service) ListUsers(ctx context.Context, q ListUsersQuery) ([]auth.User, *pagination.Pagination, error) {
	page := pagination.Request{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := s.users.List(ctx, auth.UserFilter{Search: q.Search}, page)
	if err != nil {
		return nil, nil, err
	}
	return items, pagination.New(page.Page, page.Limit, total), nil
}

func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies the admin allowlist. Admins cannot revoke their own
// admin flag or deactivate themselves.
func (s *Service) UpdateUser(ctx context.Context, callerID, id primitive.ObjectID, req UpdateUserRequest) (*auth.User, error) {
	if callerID == id && ((req.IsAdmin != nil && !*req.IsAdmin) || (req.IsActive != nil && !*req.IsActive)) {
		return nil, apperrors.Forbidden("admins cannot demote or deactivate themselves")
	}

	patch := auth.UserPatch{
		IsActive:        req.IsActive,
		IsAdmin:         req.IsAdmin,
		IsEmailVerified: req.IsEmailVerified,
	}
	var details []string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		details = append(details, auth.ValidateName(name)...)
		patch.Name = &name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		details = append(details, auth.ValidatePhone(phone)...)
		patch.Phone = &phone
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}
	if patch.IsEmpty() {
		return nil, apperrors.Validation("no updatable fields supplied")
	}
	if req.IsActive != nil && !*req.IsActive {
		patch.FCMToken = auth.String("")
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	logger.FromContext(ctx).Info("user updated by admin",
		zap.String("admin_id", callerID.Hex()), zap.String("user_id", id.Hex()))
	return user, nil
}

// DeleteUser hard deletes a regular account together with its pets, health
// records and notifications. Owned data is removed before the account.
// Admin accounts, the caller's included, must be demoted first.
func (s *Service) DeleteUser(ctx context.Context, callerID, id primitive.ObjectID) error {
	if callerID == id {
		return apperrors.Forbidden("admins cannot delete their own account")
	}
	target, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if target.IsAdmin {
		return apperrors.Forbidden("admin accounts cannot be deleted")
	}

	records, err := s.records.DeleteAllForOwner(ctx, id)
	if err != nil {
		return err
	}
	petsDeleted, err := s.pets.DeleteAllForOwner(ctx, id)
	if err != nil {
		return err
	}
	inbox, err := s.notifications.DeleteAllForUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("user deleted by admin",
		zap.String("admin_id", callerID.Hex()), zap.String("user_id", id.Hex()),
		zap.Int64("pets_removed", petsDeleted),
		zap.Int64("health_records_removed", records),
		zap.Int64("notifications_removed", inbox))
	return nil
}
