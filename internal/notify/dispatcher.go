package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/mailer"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.uber.org/zap"
)

// How long a single event may spend writing notifications and sending mail.
const handleTimeout = 30 * time.Second

// Dispatcher consumes domain events from an in-process queue and performs the
// side effects: in-app notification writes and best-effort email fan-out.
// Failures are logged and swallowed; the primary operation already succeeded
// by the time an event is enqueued.
type Dispatcher struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	mail          mailer.Mailer
	frontendURL   string
	log           *zap.Logger

	queue chan Event
	wg    sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a bounded queue. Start it with Run.
func NewDispatcher(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	mail mailer.Mailer,
	frontendURL string,
	queueSize int,
	log *zap.Logger,
) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		users:         users,
		notifications: notifications,
		mail:          mail,
		frontendURL:   frontendURL,
		log:           log,
		queue:         make(chan Event, queueSize),
	}
}

// Enqueue hands an event to the dispatcher without blocking the caller.
// When the queue is full the event is dropped and logged; side effects are
// best-effort by contract.
func (d *Dispatcher) Enqueue(e Event) {
	select {
	case d.queue <- e:
	default:
		d.log.Warn("event queue full, dropping event", zap.String("kind", e.Kind()))
	}
}

// Run consumes events until ctx is cancelled, then drains whatever is still
// queued before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	d.wg.Add(1)
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-d.queue:
					d.handle(e)
				default:
					return
				}
			}
		case e := <-d.queue:
			d.handle(e)
		}
	}
}

// Wait blocks until Run has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// handle runs one event with its own timeout. The originating request has
// already returned, so the context is detached from it.
func (d *Dispatcher) handle(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	var err error
	switch ev := e.(type) {
	case FileUploaded:
		err = d.handleFileUploaded(ctx, ev)
	case FileApproved:
		err = d.handleFileApproved(ctx, ev)
	case FileRejected:
		err = d.handleFileRejected(ctx, ev)
	case NoticePublished:
		err = d.handleNoticePublished(ctx, ev)
	case EventScheduled:
		err = d.handleEventScheduled(ctx, ev)
	default:
		d.log.Warn("unknown event kind", zap.String("kind", e.Kind()))
		return
	}
	if err != nil {
		d.log.Warn("event side effects incomplete",
			zap.String("kind", e.Kind()), zap.Error(err))
	}
}

func (d *Dispatcher) handleFileUploaded(ctx context.Context, ev FileUploaded) error {
	reviewers, err := d.users.ListByRoles(ctx, domain.ReviewerRoles)
	if err != nil {
		return err
	}

	fileID := ev.File.ID
	notifications := make([]domain.Notification, 0, len(reviewers))
	for _, r := range reviewers {
		notifications = append(notifications, domain.Notification{
			UserID:        r.ID,
			Title:         "New File for Review",
			Message:       fmt.Sprintf("%s uploaded a new %s: %s", ev.Uploader.Name, ev.File.FileType, ev.File.Title),
			Type:          domain.NotificationFilePending,
			RelatedFileID: &fileID,
		})
	}
	if err := d.notifications.CreateMany(ctx, notifications); err != nil {
		return err
	}

	if ev.Uploader.Role == domain.RoleStudent {
		// Student uploads need review: mail HODs and Faculty a deep link to
		// their review dashboard.
		targets, err := d.users.ListByRoles(ctx, []domain.Role{domain.RoleHOD, domain.RoleFaculty})
		if err != nil {
			return err
		}
		for _, t := range targets {
			if t.Email == "" {
				continue
			}
			dashboardPath := "/faculty"
			if t.Role == domain.RoleHOD {
				dashboardPath = "/hod"
			}
			d.sendMail(ctx, t.Email,
				"New File Upload Requires Approval",
				fmt.Sprintf("A new %s has been uploaded and is waiting for review.\n\nReview it here: %s%s",
					ev.File.FileType, d.frontendURL, dashboardPath))
		}
	} else {
		// Faculty/HOD uploads are live immediately: tell the students.
		students, err := d.users.ListByRoles(ctx, []domain.Role{domain.RoleStudent})
		if err != nil {
			return err
		}
		for _, s := range students {
			if s.Email == "" {
				continue
			}
			d.sendMail(ctx, s.Email,
				fmt.Sprintf("New %s Uploaded by %s", ev.File.FileType, ev.Uploader.Name),
				fmt.Sprintf("%s has uploaded a new %s titled %q.\n\nYou can view it in the repository here:\n%s/student/files",
					ev.Uploader.Name, ev.File.FileType, ev.File.Title, d.frontendURL))
		}
	}
	return nil
}

func (d *Dispatcher) handleFileApproved(ctx context.Context, ev FileApproved) error {
	fileID := ev.File.ID
	_, err := d.notifications.Create(ctx, &domain.Notification{
		UserID:        ev.Uploader.ID,
		Title:         "File Approved",
		Message:       fmt.Sprintf("Your file %q has been approved!", ev.File.Title),
		Type:          domain.NotificationFileApproved,
		RelatedFileID: &fileID,
	})
	if err != nil {
		return err
	}

	if ev.Uploader.Email != "" {
		d.sendMail(ctx, ev.Uploader.Email,
			"File Approved",
			fmt.Sprintf("Your file %q has been approved and is now visible in the repository.\n\nView it here: %s/student/files",
				ev.File.Title, d.frontendURL))
	}
	return nil
}

func (d *Dispatcher) handleFileRejected(ctx context.Context, ev FileRejected) error {
	fileID := ev.File.ID
	_, err := d.notifications.Create(ctx, &domain.Notification{
		UserID:        ev.Uploader.ID,
		Title:         "File Rejected",
		Message:       fmt.Sprintf("Your file %q was rejected. Reason: %s", ev.File.Title, ev.Reason),
		Type:          domain.NotificationFileRejected,
		RelatedFileID: &fileID,
	})
	if err != nil {
		return err
	}

	if ev.Uploader.Email != "" {
		d.sendMail(ctx, ev.Uploader.Email,
			"File Rejected",
			fmt.Sprintf("Your file %q was rejected.\nReason: %s\n\nPlease review your uploads on the dashboard: %s/student/upload",
				ev.File.Title, ev.Reason, d.frontendURL))
	}
	return nil
}

func (d *Dispatcher) handleNoticePublished(ctx context.Context, ev NoticePublished) error {
	// Only HOD-authored notices are broadcast.
	if ev.Author.Role != domain.RoleHOD {
		return nil
	}

	targets, err := d.users.ListByRoles(ctx, []domain.Role{domain.RoleFaculty, domain.RoleStudent})
	if err != nil {
		return err
	}

	message := ev.Notice.Content
	if len(message) > 200 {
		message = message[:200]
	}

	notifications := make([]domain.Notification, 0, len(targets))
	for _, t := range targets {
		notifications = append(notifications, domain.Notification{
			UserID:  t.ID,
			Title:   "New Notice: " + ev.Notice.Title,
			Message: message,
			Type:    domain.NotificationAnnouncement,
		})
	}
	if err := d.notifications.CreateMany(ctx, notifications); err != nil {
		return err
	}

	for _, t := range targets {
		if t.Email == "" {
			continue
		}
		d.sendMail(ctx, t.Email,
			"New Notice: "+ev.Notice.Title,
			fmt.Sprintf("A new notice has been broadcasted:\n\nTitle: %s\n\n%s\n\nView all notices here:\n%s/notices",
				ev.Notice.Title, ev.Notice.Content, d.frontendURL))
	}
	return nil
}

func (d *Dispatcher) handleEventScheduled(ctx context.Context, ev EventScheduled) error {
	recipients, err := d.users.ListByRolesAndCourses(ctx,
		[]domain.Role{domain.RoleFaculty, domain.RoleStudent},
		ev.Event.TargetCourses)
	if err != nil {
		return err
	}

	message := ev.Event.Description
	if message == "" {
		message = "Event scheduled on " + ev.Event.Date.Format(time.RFC1123)
	}

	notifications := make([]domain.Notification, 0, len(recipients))
	for _, r := range recipients {
		notifications = append(notifications, domain.Notification{
			UserID:  r.ID,
			Title:   "New Event: " + ev.Event.Title,
			Message: message,
			Type:    domain.NotificationAnnouncement,
		})
	}
	if err := d.notifications.CreateMany(ctx, notifications); err != nil {
		return err
	}

	location := ev.Event.Location
	if location == "" {
		location = "N/A"
	}
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		d.sendMail(ctx, r.Email,
			"New Event: "+ev.Event.Title,
			fmt.Sprintf("A new event has been scheduled:\n\nTitle: %s\nDate: %s\nLocation: %s\nDescription: %s\n\nView all events here:\n%s/events",
				ev.Event.Title, ev.Event.Date.Format(time.RFC1123), location, ev.Event.Description, d.frontendURL))
	}
	return nil
}

// sendMail is fire-and-forget: delivery failures are logged, never returned.
func (d *Dispatcher) sendMail(ctx context.Context, to, subject, body string) {
	if err := d.mail.Send(ctx, to, subject, body); err != nil {
		d.log.Warn("failed to send email", zap.String("to", to), zap.Error(err))
	}
}
