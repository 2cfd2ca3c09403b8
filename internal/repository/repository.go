package repository

import (
	"context"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// FileFilter narrows the approved-files listing. Zero values mean "no filter".
type FileFilter struct {
	FileType   domain.FileType
	Semester   int
	Department string
	Search     string // case-insensitive substring match on title
}

// SubjectFilter narrows the subject listing.
type SubjectFilter struct {
	Semester   int
	Department string
}

// UploaderStat is one row of the most-active-uploaders aggregation.
type UploaderStat struct {
	UserID      primitive.ObjectID `bson:"_id" json:"userId"`
	UserName    string             `bson:"userName" json:"userName"`
	UploadCount int64              `bson:"uploadCount" json:"uploadCount"`
}

// TypeCount is one row of the files-by-type aggregation.
type TypeCount struct {
	Type  domain.FileType `bson:"_id" json:"fileType"`
	Count int64           `bson:"count" json:"count"`
}

// DayCount is one row of the uploads-per-day aggregation (Day is YYYY-MM-DD).
type DayCount struct {
	Day   string `bson:"_id" json:"day"`
	Count int64  `bson:"count" json:"count"`
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRegistrationNumber(ctx context.Context, regNo string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ListByRoles(ctx context.Context, roles []domain.Role) ([]domain.User, error)
	ListByRolesAndCourses(ctx context.Context, roles []domain.Role, courses []string) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// FileRepository defines the interface for interacting with file documents
// and their download audit log.
type FileRepository interface {
	Create(ctx context.Context, file *domain.File) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.File, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error)
	Update(ctx context.Context, file *domain.File) error
	ListApproved(ctx context.Context, filter FileFilter) ([]domain.File, error)
	ListByStatus(ctx context.Context, status domain.FileStatus) ([]domain.File, error)
	ListByUploader(ctx context.Context, uploaderID primitive.ObjectID) ([]domain.File, error)

	// RecordDownload atomically increments the download counter of an
	// approved file and appends the audit-log entry, as one unit. Returns
	// ErrNotFound when the id does not resolve to an approved file; callers
	// cannot distinguish a missing file from an unapproved one.
	RecordDownload(ctx context.Context, fileID, userID primitive.ObjectID) (*domain.File, error)

	// Analytics
	CountByStatus(ctx context.Context, status domain.FileStatus) (int64, error)
	CountByUploader(ctx context.Context, uploaderID primitive.ObjectID, status domain.FileStatus) (int64, error)
	SumDownloadsByUploader(ctx context.Context, uploaderID primitive.ObjectID) (int64, error)
	CountRatedBy(ctx context.Context, studentID primitive.ObjectID) (int64, error)
	MostDownloaded(ctx context.Context, limit int64) ([]domain.File, error)
	TopUploaders(ctx context.Context, limit int64) ([]UploaderStat, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
	UploadsPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
}

// DownloadLogRepository exposes read access to the download audit log.
// Writes happen only through FileRepository.RecordDownload.
type DownloadLogRepository interface {
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	ListByFile(ctx context.Context, fileID primitive.ObjectID, limit int64) ([]domain.DownloadLogEntry, error)
}

// SubjectRepository defines the interface for interacting with subject data.
type SubjectRepository interface {
	Create(ctx context.Context, subject *domain.Subject) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subject, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]domain.Subject, error)
	Update(ctx context.Context, subject *domain.Subject) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// NotificationRepository defines the interface for interacting with in-app
// notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, ns []domain.Notification) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
}

// NoticeRepository defines the interface for interacting with notices.
type NoticeRepository interface {
	Create(ctx context.Context, notice *domain.Notice) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notice, error)
	ListActive(ctx context.Context, course string) ([]domain.Notice, error)
	Update(ctx context.Context, notice *domain.Notice) error
}

// EventRepository defines the interface for interacting with events.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) (primitive.ObjectID, error)
	List(ctx context.Context) ([]domain.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
