package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/notify"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type lifecycleFixture struct {
	svc      FileService
	files    *fakeFileRepo
	users    *fakeUserRepo
	subjects *fakeSubjectRepo
	storage  *fakeStorage
	sink     *recordingSink

	student *domain.User
	faculty *domain.User
	hod     *domain.User
	admin   *domain.User
	subject *domain.Subject
}

func newLifecycleFixture() *lifecycleFixture {
	student := &domain.User{Name: "Asha", Email: "asha@example.edu", Role: domain.RoleStudent}
	faculty := &domain.User{Name: "Dr. Rao", Email: "rao@example.edu", Role: domain.RoleFaculty}
	hod := &domain.User{Name: "Prof. Iyer", Email: "iyer@example.edu", Role: domain.RoleHOD}
	admin := &domain.User{Name: "Root", Email: "root@example.edu", Role: domain.RoleAdmin}
	subject := &domain.Subject{SubjectName: "Operating Systems", SubjectCode: "CS301", Semester: 5, Department: "CSE"}

	f := &lifecycleFixture{
		files:    newFakeFileRepo(),
		users:    newFakeUserRepo(student, faculty, hod, admin),
		subjects: newFakeSubjectRepo(subject),
		storage:  newFakeStorage(),
		sink:     &recordingSink{},
		student:  student,
		faculty:  faculty,
		hod:      hod,
		admin:    admin,
		subject:  subject,
	}
	f.svc = NewFileService(f.files, f.users, f.subjects, f.storage, f.sink, zap.NewNop())
	return f
}

func (f *lifecycleFixture) uploadInput(artifact *Artifact) UploadInput {
	return UploadInput{
		Title:      "Process Scheduling Notes",
		SubjectIDs: []string{f.subject.ID.Hex()},
		FileType:   string(domain.FileTypeNotes),
		Semester:   5,
		Department: "CSE",
		Artifact:   artifact,
	}
}

func newArtifact(content string) *Artifact {
	return &Artifact{
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func TestUpload_InitialStatusByRole(t *testing.T) {
	tests := []struct {
		name       string
		uploader   func(f *lifecycleFixture) *domain.User
		wantStatus domain.FileStatus
	}{
		{"student upload starts pending", func(f *lifecycleFixture) *domain.User { return f.student }, domain.StatusPending},
		{"faculty upload auto-approved", func(f *lifecycleFixture) *domain.User { return f.faculty }, domain.StatusApproved},
		{"hod upload auto-approved", func(f *lifecycleFixture) *domain.User { return f.hod }, domain.StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLifecycleFixture()
			uploader := tt.uploader(f)

			file, err := f.svc.Upload(context.Background(), uploader.ID, f.uploadInput(newArtifact("pdf bytes")))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, file.Status)
			assert.Equal(t, 1, file.CurrentVersion)
			require.Len(t, file.Versions, 1)
			assert.Equal(t, 1, file.Versions[0].VersionNumber)
			assert.Equal(t, uploader.ID, file.UploadedBy.UserID)
			assert.Equal(t, uploader.Name, file.UploadedBy.UserName)

			if tt.wantStatus == domain.StatusApproved {
				require.NotNil(t, file.ApprovedAt)
				require.NotNil(t, file.ApprovedBy)
				assert.Equal(t, uploader.ID, *file.ApprovedBy)
			} else {
				assert.Nil(t, file.ApprovedAt)
				assert.Nil(t, file.ApprovedBy)
			}

			// Artifact is in storage and a FileUploaded event was emitted
			// regardless of initial status.
			assert.Len(t, f.storage.objects, 1)
			assert.Equal(t, []string{"file.uploaded"}, f.sink.kinds())
		})
	}
}

func TestUpload_SubjectValidation(t *testing.T) {
	f := newLifecycleFixture()

	t.Run("empty subject set rejected", func(t *testing.T) {
		in := f.uploadInput(newArtifact("x"))
		in.SubjectIDs = nil
		_, err := f.svc.Upload(context.Background(), f.student.ID, in)
		assert.ErrorIs(t, err, ErrNoSubjects)
	})

	t.Run("malformed subject ref rejected outright", func(t *testing.T) {
		in := f.uploadInput(newArtifact("x"))
		in.SubjectIDs = []string{"not-an-object-id"}
		_, err := f.svc.Upload(context.Background(), f.student.ID, in)
		assert.ErrorIs(t, err, ErrInvalidSubjectRef)
	})

	t.Run("unknown subject rejected", func(t *testing.T) {
		in := f.uploadInput(newArtifact("x"))
		in.SubjectIDs = []string{primitive.NewObjectID().Hex()}
		_, err := f.svc.Upload(context.Background(), f.student.ID, in)
		assert.ErrorIs(t, err, ErrSubjectNotFound)
	})

	t.Run("duplicate refs deduplicated", func(t *testing.T) {
		in := f.uploadInput(newArtifact("x"))
		in.SubjectIDs = []string{f.subject.ID.Hex(), f.subject.ID.Hex()}
		file, err := f.svc.Upload(context.Background(), f.student.ID, in)
		require.NoError(t, err)
		assert.Len(t, file.SubjectIDs, 1)
	})

	// Only the dedup subtest produced a successful upload.
	assert.Len(t, f.sink.events, 1)
}

func TestUpload_InputValidation(t *testing.T) {
	f := newLifecycleFixture()

	t.Run("missing artifact", func(t *testing.T) {
		in := f.uploadInput(nil)
		_, err := f.svc.Upload(context.Background(), f.student.ID, in)
		assert.ErrorIs(t, err, ErrNoArtifact)
	})

	t.Run("unknown file type", func(t *testing.T) {
		in := f.uploadInput(newArtifact("x"))
		in.FileType = "Mixtape"
		_, err := f.svc.Upload(context.Background(), f.student.ID, in)
		assert.ErrorIs(t, err, ErrInvalidFileType)
	})

	t.Run("semester out of range", func(t *testing.T) {
		in := f.uploadInput(newArtifact("x"))
		in.Semester = 9
		_, err := f.svc.Upload(context.Background(), f.student.ID, in)
		assert.ErrorIs(t, err, ErrInvalidSemester)
	})

	t.Run("unknown uploader", func(t *testing.T) {
		_, err := f.svc.Upload(context.Background(), primitive.NewObjectID(), f.uploadInput(newArtifact("x")))
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpload_CleansUpArtifactOnCreateFailure(t *testing.T) {
	f := newLifecycleFixture()
	f.files.createErr = errors.New("write concern failed")

	_, err := f.svc.Upload(context.Background(), f.student.ID, f.uploadInput(newArtifact("x")))
	require.Error(t, err)

	assert.Empty(t, f.storage.objects, "orphaned artifact must be deleted")
	assert.Len(t, f.storage.deleted, 1)
	assert.Empty(t, f.sink.events)
}

func TestUpdateVersion(t *testing.T) {
	f := newLifecycleFixture()

	file, err := f.svc.Upload(context.Background(), f.faculty.ID, f.uploadInput(newArtifact("v1")))
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, file.Status)

	t.Run("only the uploader may push a version", func(t *testing.T) {
		_, err := f.svc.UpdateVersion(context.Background(), f.hod.ID, file.ID, newArtifact("v2"))
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("new version resets to pending and clears approval metadata", func(t *testing.T) {
		updated, err := f.svc.UpdateVersion(context.Background(), f.faculty.ID, file.ID, newArtifact("v2"))
		require.NoError(t, err)

		assert.Equal(t, 2, updated.CurrentVersion)
		assert.Len(t, updated.Versions, 2)
		assert.Equal(t, domain.StatusPending, updated.Status)
		assert.Nil(t, updated.ApprovedAt)
		assert.Nil(t, updated.ApprovedBy)
		// Both artifacts remain in storage; history is append-only.
		assert.Len(t, f.storage.objects, 2)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := f.svc.UpdateVersion(context.Background(), f.faculty.ID, primitive.NewObjectID(), newArtifact("v3"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestReviewAuthority(t *testing.T) {
	ctx := context.Background()

	t.Run("faculty approves student upload", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.student.ID, f.uploadInput(newArtifact("x")))

		approved, err := f.svc.Approve(ctx, f.faculty.ID, file.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, f.faculty.ID, *approved.ApprovedBy)
		assert.Equal(t, []string{"file.uploaded", "file.approved"}, f.sink.kinds())
	})

	t.Run("hod cannot approve faculty upload", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.faculty.ID, f.uploadInput(newArtifact("x")))

		_, err := f.svc.Approve(ctx, f.hod.ID, file.ID)
		var denied *ReviewDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domain.RoleHOD, denied.ReviewerRole)
		assert.Contains(t, err.Error(), "HOD can only approve student uploads")
	})

	t.Run("admin approves faculty upload", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.faculty.ID, f.uploadInput(newArtifact("x")))
		// Push a version so the file is pending again.
		_, err := f.svc.UpdateVersion(ctx, f.faculty.ID, file.ID, newArtifact("v2"))
		require.NoError(t, err)

		approved, err := f.svc.Approve(ctx, f.admin.ID, file.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, approved.Status)
	})

	t.Run("reject records reason and clears approval metadata", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.student.ID, f.uploadInput(newArtifact("x")))

		rejected, err := f.svc.Reject(ctx, f.hod.ID, file.ID, "illegible scan")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, rejected.Status)
		assert.Equal(t, "illegible scan", rejected.RejectionReason)
		assert.Nil(t, rejected.ApprovedAt)

		last := f.sink.events[len(f.sink.events)-1]
		ev, ok := last.(notify.FileRejected)
		require.True(t, ok)
		assert.Equal(t, "illegible scan", ev.Reason)
	})

	t.Run("faculty cannot reject hod upload", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.hod.ID, f.uploadInput(newArtifact("x")))

		_, err := f.svc.Reject(ctx, f.faculty.ID, file.ID, "nope")
		var denied *ReviewDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Contains(t, err.Error(), "reject")
	})
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	file, _ := f.svc.Upload(ctx, f.faculty.ID, f.uploadInput(newArtifact("x")))

	t.Run("rating out of range", func(t *testing.T) {
		_, err := f.svc.Rate(ctx, f.student.ID, file.ID, 0, "")
		assert.ErrorIs(t, err, ErrInvalidRating)
		_, err = f.svc.Rate(ctx, f.student.ID, file.ID, 6, "")
		assert.ErrorIs(t, err, ErrInvalidRating)
	})

	t.Run("repeat rating overwrites", func(t *testing.T) {
		_, err := f.svc.Rate(ctx, f.student.ID, file.ID, 3, "ok")
		require.NoError(t, err)
		rated, err := f.svc.Rate(ctx, f.student.ID, file.ID, 5, "great after reading twice")
		require.NoError(t, err)

		assert.Len(t, rated.Ratings, 1)
		assert.Equal(t, 5.0, rated.AverageRating)
	})

	t.Run("average across students", func(t *testing.T) {
		other := &domain.User{Name: "Ben", Email: "ben@example.edu", Role: domain.RoleStudent}
		id, err := f.users.Create(ctx, other)
		require.NoError(t, err)

		rated, err := f.svc.Rate(ctx, id, file.ID, 4, "")
		require.NoError(t, err)
		assert.Equal(t, 4.5, rated.AverageRating)
	})
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("pending file downloads as not found", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.student.ID, f.uploadInput(newArtifact("secret draft")))

		_, err := f.svc.Download(ctx, f.student.ID, file.ID)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("approved file streams and is audited", func(t *testing.T) {
		f := newLifecycleFixture()
		file, _ := f.svc.Upload(ctx, f.faculty.ID, f.uploadInput(newArtifact("lecture pdf")))

		result, err := f.svc.Download(ctx, f.student.ID, file.ID)
		require.NoError(t, err)
		defer result.Content.Close()

		data, err := io.ReadAll(result.Content)
		require.NoError(t, err)
		assert.Equal(t, "lecture pdf", string(data))
		assert.Equal(t, "application/pdf", result.ContentType)
		assert.Equal(t, int64(1), result.File.DownloadsCount)
		require.Len(t, f.files.downloads, 1)
		assert.Equal(t, f.student.ID, f.files.downloads[0].UserID)

		// Second download increments again.
		second, err := f.svc.Download(ctx, f.student.ID, file.ID)
		require.NoError(t, err)
		second.Content.Close()
		assert.Equal(t, int64(2), second.File.DownloadsCount)
		assert.Len(t, f.files.downloads, 2)
	})

	t.Run("unknown file", func(t *testing.T) {
		f := newLifecycleFixture()
		_, err := f.svc.Download(ctx, f.student.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	pending, _ := f.svc.Upload(ctx, f.student.ID, f.uploadInput(newArtifact("a")))
	approved, _ := f.svc.Upload(ctx, f.faculty.ID, f.uploadInput(newArtifact("b")))

	t.Run("pending queue", func(t *testing.T) {
		files, err := f.svc.ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, pending.ID, files[0].ID)
	})

	t.Run("approved listing excludes pending", func(t *testing.T) {
		files, err := f.svc.ListApproved(ctx, repository.FileFilter{})
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, approved.ID, files[0].ID)
	})

	t.Run("my uploads include all statuses", func(t *testing.T) {
		files, err := f.svc.ListByUploader(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("details resolve subject and uploader", func(t *testing.T) {
		_, err := f.svc.Rate(ctx, f.student.ID, approved.ID, 5, "clear")
		require.NoError(t, err)

		details, err := f.svc.GetDetails(ctx, approved.ID)
		require.NoError(t, err)
		require.Len(t, details.Subjects, 1)
		assert.Equal(t, "CS301", details.Subjects[0].SubjectCode)
		assert.Equal(t, f.faculty.Name, details.Uploader.Name)
		require.Len(t, details.Raters, 1)
		assert.Equal(t, f.student.Name, details.Raters[0].Name)
	})
}
