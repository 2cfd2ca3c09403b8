package service

import (
	"context"
	"errors"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrAlreadyBookmarked = errors.New("file already bookmarked")

// BookmarkedFile pairs a bookmark with its resolved file.
type BookmarkedFile struct {
	File         domain.File `json:"file"`
	BookmarkedAt time.Time   `json:"bookmarkedAt"`
}

// UserStats is the per-user dashboard summary. Which fields are populated
// depends on the user's role.
type UserStats struct {
	// Faculty
	UploadedFiles  int64 `json:"uploadedFiles,omitempty"`
	ApprovedFiles  int64 `json:"approvedFiles,omitempty"`
	PendingFiles   int64 `json:"pendingFiles,omitempty"`
	TotalDownloads int64 `json:"totalDownloads,omitempty"`
	// Student
	DownloadedFiles int64 `json:"downloadedFiles,omitempty"`
	BookmarkedFiles int64 `json:"bookmarkedFiles,omitempty"`
	RatedFiles      int64 `json:"ratedFiles,omitempty"`
}

// UserService manages bookmarks and per-user statistics.
type UserService interface {
	Bookmark(ctx context.Context, userID, fileID primitive.ObjectID) ([]domain.Bookmark, error)
	RemoveBookmark(ctx context.Context, userID, fileID primitive.ObjectID) ([]domain.Bookmark, error)
	ListBookmarks(ctx context.Context, userID primitive.ObjectID) ([]BookmarkedFile, error)
	Stats(ctx context.Context, userID primitive.ObjectID) (*UserStats, error)
}

type userService struct {
	users     repository.UserRepository
	files     repository.FileRepository
	downloads repository.DownloadLogRepository
}

// NewUserService creates a new instance of userService.
func NewUserService(
	users repository.UserRepository,
	files repository.FileRepository,
	downloads repository.DownloadLogRepository,
) UserService {
	return &userService{users: users, files: files, downloads: downloads}
}

func (s *userService) Bookmark(ctx context.Context, userID, fileID primitive.ObjectID) ([]domain.Bookmark, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.HasBookmarked(fileID) {
		return nil, ErrAlreadyBookmarked
	}
	if _, err := s.files.GetByID(ctx, fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	user.Bookmarks = append(user.Bookmarks, domain.Bookmark{
		FileID:       fileID,
		BookmarkedAt: time.Now().UTC(),
	})
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Bookmarks, nil
}

func (s *userService) RemoveBookmark(ctx context.Context, userID, fileID primitive.ObjectID) ([]domain.Bookmark, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := user.Bookmarks[:0]
	for _, b := range user.Bookmarks {
		if b.FileID != fileID {
			kept = append(kept, b)
		}
	}
	user.Bookmarks = kept

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Bookmarks, nil
}

func (s *userService) ListBookmarks(ctx context.Context, userID primitive.ObjectID) ([]BookmarkedFile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Bookmarks) == 0 {
		return []BookmarkedFile{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(user.Bookmarks))
	for _, b := range user.Bookmarks {
		ids = append(ids, b.FileID)
	}
	files, err := s.files.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]domain.File, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}

	// Bookmarks pointing at files that no longer resolve are skipped.
	out := make([]BookmarkedFile, 0, len(user.Bookmarks))
	for _, b := range user.Bookmarks {
		if f, ok := byID[b.FileID]; ok {
			out = append(out, BookmarkedFile{File: f, BookmarkedAt: b.BookmarkedAt})
		}
	}
	return out, nil
}

// Stats returns the role-appropriate dashboard numbers.
func (s *userService) Stats(ctx context.Context, userID primitive.ObjectID) (*UserStats, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{}
	switch user.Role {
	case domain.RoleFaculty, domain.RoleHOD:
		if stats.UploadedFiles, err = s.files.CountByUploader(ctx, userID, ""); err != nil {
			return nil, err
		}
		if stats.ApprovedFiles, err = s.files.CountByUploader(ctx, userID, domain.StatusApproved); err != nil {
			return nil, err
		}
		if stats.PendingFiles, err = s.files.CountByUploader(ctx, userID, domain.StatusPending); err != nil {
			return nil, err
		}
		if stats.TotalDownloads, err = s.files.SumDownloadsByUploader(ctx, userID); err != nil {
			return nil, err
		}
	case domain.RoleStudent:
		if stats.DownloadedFiles, err = s.downloads.CountByUser(ctx, userID); err != nil {
			return nil, err
		}
		stats.BookmarkedFiles = int64(len(user.Bookmarks))
		if stats.RatedFiles, err = s.files.CountRatedBy(ctx, userID); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (s *userService) getUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
