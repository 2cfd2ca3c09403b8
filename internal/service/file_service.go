package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/notify"
	"github.com/shreyaskr77/Solvathon/internal/repository"
	"github.com/shreyaskr77/Solvathon/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoArtifact        = errors.New("no file uploaded")
	ErrInvalidFileType   = errors.New("fileType must be one of Notes, Assignment, PYQ, Circular")
	ErrNoSubjects        = errors.New("at least one subject reference is required")
	ErrInvalidSubjectRef = errors.New("malformed subject reference")
	ErrSubjectNotFound   = errors.New("one or more referenced subjects do not exist")
	ErrInvalidSemester   = errors.New("semester must be between 1 and 8")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrNotOwner          = errors.New("only the original uploader may update this file")
	ErrArtifactMissing   = errors.New("file has no artifact for its current version")
)

// ReviewDeniedError is returned when a non-admin reviewer tries to act on a
// file that was not uploaded by a student.
type ReviewDeniedError struct {
	ReviewerRole domain.Role
	Action       string // "approve" or "reject"
}

func (e *ReviewDeniedError) Error() string {
	return fmt.Sprintf("%s can only %s student uploads", e.ReviewerRole, e.Action)
}

// EventSink receives domain events after a lifecycle operation committed its
// state change. Implemented by notify.Dispatcher.
type EventSink interface {
	Enqueue(e notify.Event)
}

// Artifact is the binary payload of an upload or version update.
type Artifact struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadInput carries the metadata of a new file upload.
type UploadInput struct {
	Title       string
	Description string
	SubjectIDs  []string
	FileType    string
	Semester    int
	Department  string
	Tags        []string
	Artifact    *Artifact
}

// DownloadResult carries the artifact stream of a successful download.
// The caller must close Content.
type DownloadResult struct {
	File        *domain.File
	Version     domain.Version
	Content     io.ReadCloser
	ContentType string
}

// RaterInfo resolves a rating's student id to a display name.
type RaterInfo struct {
	StudentID primitive.ObjectID `json:"studentId"`
	Name      string             `json:"name"`
}

// UploaderInfo resolves the uploader reference of a file.
type UploaderInfo struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// FileDetails is a file with its subject, uploader and rater references
// resolved for the detail view.
type FileDetails struct {
	File     domain.File      `json:"file"`
	Subjects []domain.Subject `json:"subjects"`
	Uploader UploaderInfo     `json:"uploader"`
	Raters   []RaterInfo      `json:"raters,omitempty"`
}

// FileService owns the file lifecycle: upload, versioning, review, rating
// and download.
type FileService interface {
	Upload(ctx context.Context, uploaderID primitive.ObjectID, in UploadInput) (*domain.File, error)
	UpdateVersion(ctx context.Context, actorID, fileID primitive.ObjectID, artifact *Artifact) (*domain.File, error)
	Approve(ctx context.Context, reviewerID, fileID primitive.ObjectID) (*domain.File, error)
	Reject(ctx context.Context, reviewerID, fileID primitive.ObjectID, reason string) (*domain.File, error)
	Rate(ctx context.Context, studentID, fileID primitive.ObjectID, rating int, feedback string) (*domain.File, error)
	Download(ctx context.Context, userID, fileID primitive.ObjectID) (*DownloadResult, error)

	ListApproved(ctx context.Context, filter repository.FileFilter) ([]domain.File, error)
	ListPending(ctx context.Context) ([]domain.File, error)
	ListByUploader(ctx context.Context, uploaderID primitive.ObjectID) ([]domain.File, error)
	GetDetails(ctx context.Context, fileID primitive.ObjectID) (*FileDetails, error)
}

// fileService implements FileService.
type fileService struct {
	files       repository.FileRepository
	users       repository.UserRepository
	subjects    repository.SubjectRepository
	fileStorage storage.FileStorage
	events      EventSink
	log         *zap.Logger
}

// NewFileService creates a new instance of fileService.
func NewFileService(
	files repository.FileRepository,
	users repository.UserRepository,
	subjects repository.SubjectRepository,
	fileStorage storage.FileStorage,
	events EventSink,
	log *zap.Logger,
) FileService {
	return &fileService{
		files:       files,
		users:       users,
		subjects:    subjects,
		fileStorage: fileStorage,
		events:      events,
		log:         log,
	}
}

// === Upload ===

// Upload stores the artifact, creates the file document with version 1 and
// the role-derived initial status, and emits a FileUploaded event. If the
// document insert fails after the artifact was stored, the artifact is
// deleted again so storage never holds orphans.
func (s *fileService) Upload(ctx context.Context, uploaderID primitive.ObjectID, in UploadInput) (*domain.File, error) {
	uploader, err := s.users.GetByID(ctx, uploaderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.Artifact == nil || in.Artifact.Content == nil {
		return nil, ErrNoArtifact
	}

	fileType := domain.FileType(in.FileType)
	if !domain.ValidFileType(fileType) {
		return nil, ErrInvalidFileType
	}
	if in.Semester != 0 && (in.Semester < 1 || in.Semester > 8) {
		return nil, ErrInvalidSemester
	}

	subjectIDs, err := s.resolveSubjectIDs(ctx, in.SubjectIDs)
	if err != nil {
		return nil, err
	}

	objectKey := s.newObjectKey(uploaderID, in.Artifact.FileName)
	if err := s.fileStorage.Upload(ctx, objectKey, in.Artifact.ContentType, in.Artifact.Size, in.Artifact.Content); err != nil {
		return nil, fmt.Errorf("storing artifact: %w", err)
	}

	now := time.Now().UTC()
	file := &domain.File{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		SubjectIDs:  subjectIDs,
		UploadedBy: domain.UploaderRef{
			UserID:   uploader.ID,
			UserName: uploader.Name,
		},
		FileType: fileType,
		Status:   domain.InitialStatus(uploader.Role),
		Versions: []domain.Version{{
			VersionNumber: 1,
			ObjectKey:     objectKey,
			FileName:      in.Artifact.FileName,
			ContentType:   in.Artifact.ContentType,
			FileSize:      in.Artifact.Size,
			UploadedAt:    now,
			UpdatedBy:     uploader.ID,
		}},
		CurrentVersion: 1,
		Semester:       in.Semester,
		Department:     strings.TrimSpace(in.Department),
		Tags:           cleanTags(in.Tags),
	}
	if file.Status == domain.StatusApproved {
		file.ApprovedAt = &now
		approvedBy := uploader.ID
		file.ApprovedBy = &approvedBy
	}

	fileID, err := s.files.Create(ctx, file)
	if err != nil {
		s.cleanupArtifact(objectKey)
		return nil, err
	}
	file.ID = fileID

	s.events.Enqueue(notify.FileUploaded{File: *file, Uploader: *uploader})
	return file, nil
}

// === Versioning ===

// UpdateVersion appends a new version to the file the actor originally
// uploaded and resets it to Pending for re-approval.
func (s *fileService) UpdateVersion(ctx context.Context, actorID, fileID primitive.ObjectID, artifact *Artifact) (*domain.File, error) {
	if artifact == nil || artifact.Content == nil {
		return nil, ErrNoArtifact
	}

	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.UploadedBy.UserID != actorID {
		return nil, ErrNotOwner
	}

	objectKey := s.newObjectKey(actorID, artifact.FileName)
	if err := s.fileStorage.Upload(ctx, objectKey, artifact.ContentType, artifact.Size, artifact.Content); err != nil {
		return nil, fmt.Errorf("storing artifact: %w", err)
	}

	file.AppendVersion(domain.Version{
		ObjectKey:   objectKey,
		FileName:    artifact.FileName,
		ContentType: artifact.ContentType,
		FileSize:    artifact.Size,
		UploadedAt:  time.Now().UTC(),
		UpdatedBy:   actorID,
	})

	if err := s.files.Update(ctx, file); err != nil {
		s.cleanupArtifact(objectKey)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// === Review ===

func (s *fileService) Approve(ctx context.Context, reviewerID, fileID primitive.ObjectID) (*domain.File, error) {
	reviewer, file, uploader, err := s.loadReviewContext(ctx, reviewerID, fileID)
	if err != nil {
		return nil, err
	}
	if !domain.CanReview(reviewer.Role, uploader.Role) {
		return nil, &ReviewDeniedError{ReviewerRole: reviewer.Role, Action: "approve"}
	}

	file.MarkApproved(reviewer.ID, time.Now().UTC())
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}

	s.events.Enqueue(notify.FileApproved{File: *file, Uploader: *uploader})
	return file, nil
}

func (s *fileService) Reject(ctx context.Context, reviewerID, fileID primitive.ObjectID, reason string) (*domain.File, error) {
	reviewer, file, uploader, err := s.loadReviewContext(ctx, reviewerID, fileID)
	if err != nil {
		return nil, err
	}
	if !domain.CanReview(reviewer.Role, uploader.Role) {
		return nil, &ReviewDeniedError{ReviewerRole: reviewer.Role, Action: "reject"}
	}

	file.MarkRejected(reason)
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}

	s.events.Enqueue(notify.FileRejected{File: *file, Uploader: *uploader, Reason: reason})
	return file, nil
}

// loadReviewContext fetches the three documents every review decision needs.
func (s *fileService) loadReviewContext(ctx context.Context, reviewerID, fileID primitive.ObjectID) (*domain.User, *domain.File, *domain.User, error) {
	reviewer, err := s.users.GetByID(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrUserNotFound
		}
		return nil, nil, nil, err
	}

	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, nil, nil, err
	}

	uploader, err := s.users.GetByID(ctx, file.UploadedBy.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, fmt.Errorf("uploader %s of file %s: %w",
				file.UploadedBy.UserID.Hex(), fileID.Hex(), ErrUserNotFound)
		}
		return nil, nil, nil, err
	}

	return reviewer, file, uploader, nil
}

// === Rating ===

// Rate upserts the student's rating (one per student, latest value wins) and
// recomputes the average. No self-rating exclusion is enforced.
func (s *fileService) Rate(ctx context.Context, studentID, fileID primitive.ObjectID, rating int, feedback string) (*domain.File, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	file.UpsertRating(studentID, rating, strings.TrimSpace(feedback), time.Now().UTC())
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// === Download ===

// Download records the download (audit entry + counter, atomically) and
// streams back the artifact of the current version. An unapproved file is
// indistinguishable from a missing one.
func (s *fileService) Download(ctx context.Context, userID, fileID primitive.ObjectID) (*DownloadResult, error) {
	file, err := s.files.RecordDownload(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	version := file.CurrentArtifact()
	if version == nil {
		return nil, ErrArtifactMissing
	}

	body, contentType, err := s.fileStorage.Download(ctx, version.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("fetching artifact %s: %w", version.ObjectKey, err)
	}
	if contentType == "" {
		contentType = version.ContentType
	}

	return &DownloadResult{
		File:        file,
		Version:     *version,
		Content:     body,
		ContentType: contentType,
	}, nil
}

// === Queries ===

func (s *fileService) ListApproved(ctx context.Context, filter repository.FileFilter) ([]domain.File, error) {
	return s.files.ListApproved(ctx, filter)
}

func (s *fileService) ListPending(ctx context.Context) ([]domain.File, error) {
	return s.files.ListByStatus(ctx, domain.StatusPending)
}

func (s *fileService) ListByUploader(ctx context.Context, uploaderID primitive.ObjectID) ([]domain.File, error) {
	return s.files.ListByUploader(ctx, uploaderID)
}

// GetDetails resolves the subject, uploader and rater references of a file
// for the detail view.
func (s *fileService) GetDetails(ctx context.Context, fileID primitive.ObjectID) (*FileDetails, error) {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	subjects, err := s.subjects.GetByIDs(ctx, file.SubjectIDs)
	if err != nil {
		return nil, err
	}

	details := &FileDetails{File: *file, Subjects: subjects}

	if uploader, err := s.users.GetByID(ctx, file.UploadedBy.UserID); err == nil {
		details.Uploader = UploaderInfo{ID: uploader.ID, Name: uploader.Name, Email: uploader.Email}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if len(file.Ratings) > 0 {
		raterIDs := make([]primitive.ObjectID, 0, len(file.Ratings))
		for _, r := range file.Ratings {
			raterIDs = append(raterIDs, r.StudentID)
		}
		raters, err := s.users.GetByIDs(ctx, raterIDs)
		if err != nil {
			return nil, err
		}
		details.Raters = make([]RaterInfo, 0, len(raters))
		for _, r := range raters {
			details.Raters = append(details.Raters, RaterInfo{StudentID: r.ID, Name: r.Name})
		}
	}

	return details, nil
}

// === Helpers ===

func (s *fileService) getFile(ctx context.Context, fileID primitive.ObjectID) (*domain.File, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// resolveSubjectIDs validates the subject reference set: non-empty,
// well-formed ids, all of which must exist. Malformed input is rejected
// outright instead of being reinterpreted.
func (s *fileService) resolveSubjectIDs(ctx context.Context, raw []string) ([]primitive.ObjectID, error) {
	if len(raw) == 0 {
		return nil, ErrNoSubjects
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	seen := make(map[primitive.ObjectID]bool, len(raw))
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSubjectRef, r)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	subjects, err := s.subjects.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(subjects) != len(ids) {
		return nil, ErrSubjectNotFound
	}
	return ids, nil
}

// newObjectKey builds a unique storage key; keys are never reused across
// versions.
func (s *fileService) newObjectKey(uploaderID primitive.ObjectID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return path.Join("files", uploaderID.Hex(), uuid.NewString()+ext)
}

// cleanupArtifact removes a just-stored artifact after a failed document
// write. Runs on a fresh context: the request may already be gone.
func (s *fileService) cleanupArtifact(objectKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.fileStorage.Delete(ctx, objectKey); err != nil {
		s.log.Error("failed to clean up orphaned artifact",
			zap.String("key", objectKey), zap.Error(err))
	}
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
