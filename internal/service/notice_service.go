package service

import (
	"context"
	"errors"
	"fmt"
	"io"
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

var (
	ErrNoticeNotFound     = errors.New("notice not found")
	ErrInvalidNotice      = errors.New("notice requires title and content")
	ErrAttachmentTooLarge = errors.New("notice attachment exceeds the size limit")
)

// NoticeInput carries the fields of a create-notice request.
type NoticeInput struct {
	Title         string
	Content       string
	TargetCourses []string
	Attachments   []Artifact
}

// NoticeService manages broadcast notices and their attachments.
type NoticeService interface {
	Create(ctx context.Context, authorID primitive.ObjectID, in NoticeInput) (*domain.Notice, error)
	ListActive(ctx context.Context, course string) ([]domain.Notice, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Notice, error)
	// Attachment streams the notice attachment at the given index. The
	// caller must close the reader.
	Attachment(ctx context.Context, id primitive.ObjectID, index int) (io.ReadCloser, string, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) (*domain.Notice, error)
}

type noticeService struct {
	notices           repository.NoticeRepository
	users             repository.UserRepository
	fileStorage       storage.FileStorage
	events            EventSink
	maxAttachmentSize int64
	log               *zap.Logger
}

// NewNoticeService creates a new instance of noticeService.
func NewNoticeService(
	notices repository.NoticeRepository,
	users repository.UserRepository,
	fileStorage storage.FileStorage,
	events EventSink,
	maxAttachmentSize int64,
	log *zap.Logger,
) NoticeService {
	return &noticeService{
		notices:           notices,
		users:             users,
		fileStorage:       fileStorage,
		events:            events,
		maxAttachmentSize: maxAttachmentSize,
		log:               log,
	}
}

// Create stores the attachments first, then the notice document. Attachments
// already written are cleaned up if the insert fails.
func (s *noticeService) Create(ctx context.Context, authorID primitive.ObjectID, in NoticeInput) (*domain.Notice, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, ErrInvalidNotice
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	for _, a := range in.Attachments {
		if a.Size > s.maxAttachmentSize {
			return nil, ErrAttachmentTooLarge
		}
	}

	keys := make([]string, 0, len(in.Attachments))
	for i := range in.Attachments {
		a := &in.Attachments[i]
		key := fmt.Sprintf("notices/%s/%s%s", authorID.Hex(), uuid.New().String(), strings.ToLower(filepath.Ext(a.FileName)))
		if err := s.fileStorage.Upload(ctx, key, a.ContentType, a.Size, a.Content); err != nil {
			s.cleanupAttachments(keys)
			return nil, fmt.Errorf("failed to store notice attachment: %w", err)
		}
		keys = append(keys, key)
	}

	notice := &domain.Notice{
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		AuthorID:      authorID,
		TargetCourses: in.TargetCourses,
		Attachments:   keys,
		IsActive:      true,
	}

	id, err := s.notices.Create(ctx, notice)
	if err != nil {
		s.cleanupAttachments(keys)
		return nil, err
	}
	notice.ID = id

	s.events.Enqueue(notify.NoticePublished{Notice: *notice, Author: *author})
	return notice, nil
}

func (s *noticeService) ListActive(ctx context.Context, course string) ([]domain.Notice, error) {
	return s.notices.ListActive(ctx, course)
}

func (s *noticeService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Notice, error) {
	notice, err := s.notices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	return notice, nil
}

func (s *noticeService) Attachment(ctx context.Context, id primitive.ObjectID, index int) (io.ReadCloser, string, error) {
	notice, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if index < 0 || index >= len(notice.Attachments) {
		return nil, "", ErrNoticeNotFound
	}
	return s.fileStorage.Download(ctx, notice.Attachments[index])
}

// Deactivate hides a notice without deleting it or its attachments.
func (s *noticeService) Deactivate(ctx context.Context, id primitive.ObjectID) (*domain.Notice, error) {
	notice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	notice.IsActive = false
	if err := s.notices.Update(ctx, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

func (s *noticeService) cleanupAttachments(keys []string) {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.fileStorage.Delete(cleanupCtx, key); err != nil {
			s.log.Warn("failed to clean up notice attachment", zap.String("objectKey", key), zap.Error(err))
		}
	}
}
