package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs every published event at debug level, tagged
// with the folder, file and line ids its payload refers to. Dropped events
// and subscriber panics are logged as warnings and errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		logger.Debug().Str("event", string(event)).Func(payloadFields(payload)).Msg("event fired")
	})

	bus.OnDrop(func(event Event, payload any) {
		logger.Warn().Str("event", string(event)).Func(payloadFields(payload)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func payloadFields(payload any) func(*zerolog.Event) {
	return func(e *zerolog.Event) {
		switch p := payload.(type) {
		case FolderAddedPayload:
			e.Int("folder_id", p.Folder.ID).Str("name", p.Folder.Name)
		case FolderDeletedPayload:
			e.Int("folder_id", p.FolderID)
		case FileAddedPayload:
			e.Int("file_id", p.File.ID).Int("folder_id", p.File.FolderID)
		case FileDeletedPayload:
			e.Int("file_id", p.FileID)
		case FileOpenedPayload:
			e.Int("file_id", p.FileID).Int("lines", p.Lines).Int("sections", p.Sections)
		case SectionCreatedPayload:
			e.Int("file_id", p.Section.FileID).Int("start", p.Section.StartLine).Int("end", p.Section.EndLine)
		case SectionDeletedPayload:
			e.Int("file_id", p.Section.FileID).Int("start", p.Section.StartLine).Int("end", p.Section.EndLine)
		case CompileFinishedPayload:
			e.Int("file_id", p.FileID).Str("status", string(p.Status)).Int("diagnostics", p.Diagnostics)
		case RequestFailedPayload:
			e.Str("op", p.Op).AnErr("cause", p.Err)
		case NotificationPublishedPayload:
			e.Str("level", string(p.Level))
		}
	}
}
