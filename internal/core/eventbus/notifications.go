package eventbus

import (
	"errors"
	"fmt"

	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/notify"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeCompileFinished(func(p CompileFinishedPayload) {
		level := notify.LevelInfo
		switch p.Status {
		case correlate.StatusWarnings:
			level = notify.LevelWarning
		case correlate.StatusFailed:
			level = notify.LevelError
		}
		r.notifyf(level, "%s (%d diagnostics)", p.Status, p.Diagnostics)
	})

	r.bus.SubscribeFolderDeleted(func(p FolderDeletedPayload) {
		r.notifyf(notify.LevelInfo, "folder %d deleted with %d subfolders and %d files",
			p.FolderID, max(len(p.Removed.Folders)-1, 0), len(p.Removed.Files))
	})

	r.bus.SubscribeFileDeleted(func(p FileDeletedPayload) {
		r.notifyf(notify.LevelInfo, "file %d deleted", p.FileID)
	})

	r.bus.SubscribeRequestFailed(func(p RequestFailedPayload) {
		if p.Err == nil {
			return
		}
		level := notify.LevelError
		if errors.Is(p.Err, errs.ErrValidation) || errors.Is(p.Err, errs.ErrBusy) {
			level = notify.LevelWarning
		}
		r.notifyf(level, "%s: %v", p.Op, p.Err)
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
