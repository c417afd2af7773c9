package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/pkg/logger"
)

// Notifier is the part of the notification service the jobs drive.
type Notifier interface {
	DispatchDue(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) (int64, error)
}

const (
	DispatchJob = "notifications.dispatch"
	CleanupJob  = "notifications.cleanup"
)

// NotificationJobs pushes scheduled notifications that came due and drops
// expired ones.
func NotificationJobs(n Notifier, dispatchSpec, cleanupSpec string) []Job {
	return []Job{
		{
			Name: DispatchJob,
			Spec: dispatchSpec,
			Run: func(ctx context.Context) error {
				sent, err := n.DispatchDue(ctx)
				if sent > 0 {
					logger.FromContext(ctx).Info("scheduled notifications dispatched", zap.Int("count", sent))
				}
				return err
			},
		},
		{
			Name: CleanupJob,
			Spec: cleanupSpec,
			Run: func(ctx context.Context) error {
				deleted, err := n.Cleanup(ctx)
				if deleted > 0 {
					logger.FromContext(ctx).Info("expired notifications removed", zap.Int64("count", deleted))
				}
				return err
			},
		},
	}
}
