package notify

import "github.com/shreyaskr77/Solvathon/internal/domain"

// Event is a domain event emitted by a lifecycle operation after its state
// change has been committed. The dispatcher drains these asynchronously, so
// notification and mail failures never reach the originating request.
type Event interface {
	Kind() string
}

// FileUploaded is emitted for every upload, whether or not the file was
// auto-approved. Reviewers are notified in both cases; the auto-approved
// variant is long-standing portal behavior.
type FileUploaded struct {
	File     domain.File
	Uploader domain.User
}

func (FileUploaded) Kind() string { return "file.uploaded" }

// FileApproved is emitted when a reviewer approves a file.
type FileApproved struct {
	File     domain.File
	Uploader domain.User
}

func (FileApproved) Kind() string { return "file.approved" }

// FileRejected is emitted when a reviewer rejects a file.
type FileRejected struct {
	File     domain.File
	Uploader domain.User
	Reason   string
}

func (FileRejected) Kind() string { return "file.rejected" }

// NoticePublished is emitted when a notice is created. Fan-out only happens
// for HOD-authored notices.
type NoticePublished struct {
	Notice domain.Notice
	Author domain.User
}

func (NoticePublished) Kind() string { return "notice.published" }

// EventScheduled is emitted when a departmental event is created.
type EventScheduled struct {
	Event domain.Event
}

func (EventScheduled) Kind() string { return "event.scheduled" }
