// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within asmbench.
package eventbus

import (
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

// Keep list sorted A-Z
const (
	EventCompileFinished       Event = "compile.finished"
	EventFileAdded             Event = "file.added"
	EventFileDeleted           Event = "file.deleted"
	EventFileOpened            Event = "file.opened"
	EventFolderAdded           Event = "folder.added"
	EventFolderDeleted         Event = "folder.deleted"
	EventNotificationPublished Event = "notification.published"
	EventRequestFailed         Event = "request.failed"
	EventSectionCreated        Event = "section.created"
	EventSectionDeleted        Event = "section.deleted"
	EventTuiStarted            Event = "tui.started"
	EventTuiStopped            Event = "tui.stopped"
)

// FolderAddedPayload is emitted when the store confirms a new folder.
type FolderAddedPayload struct {
	Folder workspace.Folder
}

// FolderDeletedPayload is emitted after a folder subtree is removed.
type FolderDeletedPayload struct {
	FolderID int
	Removed  workspace.Removed
}

// FileAddedPayload is emitted when the store confirms a new file.
type FileAddedPayload struct {
	File workspace.File
}

// FileDeletedPayload is emitted after a file is removed.
type FileDeletedPayload struct {
	FileID int
}

// FileOpenedPayload is emitted when a Source Document is loaded.
type FileOpenedPayload struct {
	FileID   int
	Lines    int
	Sections int
}

// SectionCreatedPayload is emitted when a section is added.
type SectionCreatedPayload struct {
	Section section.Section
}

// SectionDeletedPayload is emitted when a section is removed.
type SectionDeletedPayload struct {
	Section section.Section
}

// CompileFinishedPayload is emitted when a compilation result is ingested.
type CompileFinishedPayload struct {
	FileID      int
	Status      correlate.Status
	Diagnostics int
}

// RequestFailedPayload is emitted when a command is rejected or its
// exchange fails.
type RequestFailedPayload struct {
	Op  string
	Err error
}

// NotificationPublishedPayload carries a user-facing message.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Message string
}

// TUIStartedPayload is emitted when the TUI starts.
type TUIStartedPayload struct{}

// TUIStoppedPayload is emitted when the TUI stops.
type TUIStoppedPayload struct{}

func subscribe[T any](bus *EventBus, event Event, fn func(T)) {
	bus.subscribe(event, func(p any) {
		if v, ok := p.(T); ok {
			fn(v)
		}
	})
}

func (bus *EventBus) PublishCompileFinished(p CompileFinishedPayload) {
	bus.send(EventCompileFinished, p)
}

func (bus *EventBus) SubscribeCompileFinished(fn func(CompileFinishedPayload)) {
	subscribe(bus, EventCompileFinished, fn)
}

func (bus *EventBus) PublishFileAdded(p FileAddedPayload) { bus.send(EventFileAdded, p) }

func (bus *EventBus) SubscribeFileAdded(fn func(FileAddedPayload)) {
	subscribe(bus, EventFileAdded, fn)
}

func (bus *EventBus) PublishFileDeleted(p FileDeletedPayload) { bus.send(EventFileDeleted, p) }

func (bus *EventBus) SubscribeFileDeleted(fn func(FileDeletedPayload)) {
	subscribe(bus, EventFileDeleted, fn)
}

func (bus *EventBus) PublishFileOpened(p FileOpenedPayload) { bus.send(EventFileOpened, p) }

func (bus *EventBus) SubscribeFileOpened(fn func(FileOpenedPayload)) {
	subscribe(bus, EventFileOpened, fn)
}

func (bus *EventBus) PublishFolderAdded(p FolderAddedPayload) { bus.send(EventFolderAdded, p) }

func (bus *EventBus) SubscribeFolderAdded(fn func(FolderAddedPayload)) {
	subscribe(bus, EventFolderAdded, fn)
}

func (bus *EventBus) PublishFolderDeleted(p FolderDeletedPayload) { bus.send(EventFolderDeleted, p) }

func (bus *EventBus) SubscribeFolderDeleted(fn func(FolderDeletedPayload)) {
	subscribe(bus, EventFolderDeleted, fn)
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	subscribe(bus, EventNotificationPublished, fn)
}

func (bus *EventBus) PublishRequestFailed(p RequestFailedPayload) { bus.send(EventRequestFailed, p) }

func (bus *EventBus) SubscribeRequestFailed(fn func(RequestFailedPayload)) {
	subscribe(bus, EventRequestFailed, fn)
}

func (bus *EventBus) PublishSectionCreated(p SectionCreatedPayload) {
	bus.send(EventSectionCreated, p)
}

func (bus *EventBus) SubscribeSectionCreated(fn func(SectionCreatedPayload)) {
	subscribe(bus, EventSectionCreated, fn)
}

func (bus *EventBus) PublishSectionDeleted(p SectionDeletedPayload) {
	bus.send(EventSectionDeleted, p)
}

func (bus *EventBus) SubscribeSectionDeleted(fn func(SectionDeletedPayload)) {
	subscribe(bus, EventSectionDeleted, fn)
}

func (bus *EventBus) PublishTuiStarted(p TUIStartedPayload) { bus.send(EventTuiStarted, p) }

func (bus *EventBus) SubscribeTuiStarted(fn func(TUIStartedPayload)) {
	subscribe(bus, EventTuiStarted, fn)
}

func (bus *EventBus) PublishTuiStopped(p TUIStoppedPayload) { bus.send(EventTuiStopped, p) }

func (bus *EventBus) SubscribeTuiStopped(fn func(TUIStoppedPayload)) {
	subscribe(bus, EventTuiStopped, fn)
}
