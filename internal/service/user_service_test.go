package service

import (
	"context"
	"testing"

	"github.com/shreyaskr77/Solvathon/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBookmarks(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (UserService, *fakeUserRepo, *fakeFileRepo, *domain.User, *domain.File) {
		t.Helper()
		student := &domain.User{Name: "Asha", Email: "asha@example.edu", Role: domain.RoleStudent}
		users := newFakeUserRepo(student)
		file := &domain.File{Title: "OS Notes", Status: domain.StatusApproved}
		files := newFakeFileRepo(file)
		svc := NewUserService(users, files, &fakeDownloadLogRepo{files: files})
		return svc, users, files, student, file
	}

	t.Run("add and list", func(t *testing.T) {
		svc, _, _, student, file := setup(t)

		bookmarks, err := svc.Bookmark(ctx, student.ID, file.ID)
		require.NoError(t, err)
		require.Len(t, bookmarks, 1)
		assert.Equal(t, file.ID, bookmarks[0].FileID)

		resolved, err := svc.ListBookmarks(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, resolved, 1)
		assert.Equal(t, "OS Notes", resolved[0].File.Title)
	})

	t.Run("duplicate bookmark rejected", func(t *testing.T) {
		svc, _, _, student, file := setup(t)

		_, err := svc.Bookmark(ctx, student.ID, file.ID)
		require.NoError(t, err)
		_, err = svc.Bookmark(ctx, student.ID, file.ID)
		assert.ErrorIs(t, err, ErrAlreadyBookmarked)
	})

	t.Run("bookmarking a missing file fails", func(t *testing.T) {
		svc, _, _, student, _ := setup(t)
		_, err := svc.Bookmark(ctx, student.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		svc, _, _, student, file := setup(t)

		_, err := svc.Bookmark(ctx, student.ID, file.ID)
		require.NoError(t, err)
		bookmarks, err := svc.RemoveBookmark(ctx, student.ID, file.ID)
		require.NoError(t, err)
		assert.Empty(t, bookmarks)
	})

	t.Run("removing an absent bookmark is a no-op", func(t *testing.T) {
		svc, _, _, student, _ := setup(t)
		bookmarks, err := svc.RemoveBookmark(ctx, student.ID, primitive.NewObjectID())
		require.NoError(t, err)
		assert.Empty(t, bookmarks)
	})
}

func TestUserStats(t *testing.T) {
	ctx := context.Background()

	t.Run("faculty counters", func(t *testing.T) {
		faculty := &domain.User{Name: "Dr. Rao", Email: "rao@example.edu", Role: domain.RoleFaculty}
		users := newFakeUserRepo(faculty)
		files := newFakeFileRepo(
			&domain.File{UploadedBy: domain.UploaderRef{UserID: faculty.ID}, Status: domain.StatusApproved, DownloadsCount: 7},
			&domain.File{UploadedBy: domain.UploaderRef{UserID: faculty.ID}, Status: domain.StatusPending, DownloadsCount: 0},
			&domain.File{UploadedBy: domain.UploaderRef{UserID: primitive.NewObjectID()}, Status: domain.StatusApproved, DownloadsCount: 99},
		)
		svc := NewUserService(users, files, &fakeDownloadLogRepo{files: files})

		stats, err := svc.Stats(ctx, faculty.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.UploadedFiles)
		assert.Equal(t, int64(1), stats.ApprovedFiles)
		assert.Equal(t, int64(1), stats.PendingFiles)
		assert.Equal(t, int64(7), stats.TotalDownloads)
	})

	t.Run("student counters", func(t *testing.T) {
		student := &domain.User{Name: "Asha", Email: "asha@example.edu", Role: domain.RoleStudent}
		users := newFakeUserRepo(student)
		file := &domain.File{
			Status:  domain.StatusApproved,
			Ratings: []domain.Rating{{StudentID: student.ID, Rating: 4}},
		}
		files := newFakeFileRepo(file)
		svc := NewUserService(users, files, &fakeDownloadLogRepo{files: files})

		_, err := files.RecordDownload(ctx, file.ID, student.ID)
		require.NoError(t, err)
		_, err = svc.Bookmark(ctx, student.ID, file.ID)
		require.NoError(t, err)

		stats, err := svc.Stats(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.DownloadedFiles)
		assert.Equal(t, int64(1), stats.BookmarkedFiles)
		assert.Equal(t, int64(1), stats.RatedFiles)
	})
}
