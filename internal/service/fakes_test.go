package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/notify"
	"github.com/shreyaskr77/Solvathon/internal/repository"
	"github.com/shreyaskr77/Solvathon/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes standing in for the Mongo repositories and S3 storage.

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByRegistrationNumber(_ context.Context, regNo string) (*domain.User, error) {
	for _, u := range r.users {
		if u.RegistrationNumber == regNo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ListByRoles(_ context.Context, roles []domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, *u)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRolesAndCourses(ctx context.Context, roles []domain.Role, courses []string) ([]domain.User, error) {
	byRole, _ := r.ListByRoles(ctx, roles)
	if len(courses) == 0 {
		return byRole, nil
	}
	var out []domain.User
	for _, u := range byRole {
		for _, course := range courses {
			if u.Course == course {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Count(context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// --- subjects ---

type fakeSubjectRepo struct {
	subjects map[primitive.ObjectID]*domain.Subject
}

func newFakeSubjectRepo(subjects ...*domain.Subject) *fakeSubjectRepo {
	r := &fakeSubjectRepo{subjects: make(map[primitive.ObjectID]*domain.Subject)}
	for _, s := range subjects {
		if s.ID.IsZero() {
			s.ID = primitive.NewObjectID()
		}
		r.subjects[s.ID] = s
	}
	return r
}

func (r *fakeSubjectRepo) Create(_ context.Context, subject *domain.Subject) (primitive.ObjectID, error) {
	for _, s := range r.subjects {
		if s.SubjectCode == subject.SubjectCode || s.SubjectName == subject.SubjectName {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	subject.ID = primitive.NewObjectID()
	r.subjects[subject.ID] = subject
	return subject.ID, nil
}

func (r *fakeSubjectRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subject, error) {
	s, ok := r.subjects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubjectRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Subject, error) {
	var out []domain.Subject
	for _, id := range ids {
		if s, ok := r.subjects[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubjectRepo) List(_ context.Context, filter repository.SubjectFilter) ([]domain.Subject, error) {
	var out []domain.Subject
	for _, s := range r.subjects {
		if filter.Semester != 0 && s.Semester != filter.Semester {
			continue
		}
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSubjectRepo) Update(_ context.Context, subject *domain.Subject) error {
	if _, ok := r.subjects[subject.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *subject
	r.subjects[subject.ID] = &cp
	return nil
}

func (r *fakeSubjectRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.subjects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.subjects, id)
	return nil
}

// --- files ---

type fakeFileRepo struct {
	files     map[primitive.ObjectID]*domain.File
	downloads []domain.DownloadLogEntry
	createErr error
	updateErr error
}

func newFakeFileRepo(files ...*domain.File) *fakeFileRepo {
	r := &fakeFileRepo{files: make(map[primitive.ObjectID]*domain.File)}
	for _, f := range files {
		if f.ID.IsZero() {
			f.ID = primitive.NewObjectID()
		}
		r.files[f.ID] = f
	}
	return r
}

func (r *fakeFileRepo) Create(_ context.Context, file *domain.File) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	file.ID = primitive.NewObjectID()
	file.CreatedAt = time.Now().UTC()
	file.UpdatedAt = file.CreatedAt
	cp := *file
	r.files[file.ID] = &cp
	return file.ID, nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.File, error) {
	var out []domain.File
	for _, id := range ids {
		if f, ok := r.files[id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) Update(_ context.Context, file *domain.File) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.files[file.ID]; !ok {
		return repository.ErrNotFound
	}
	file.UpdatedAt = time.Now().UTC()
	cp := *file
	r.files[file.ID] = &cp
	return nil
}

func (r *fakeFileRepo) ListApproved(_ context.Context, filter repository.FileFilter) ([]domain.File, error) {
	var out []domain.File
	for _, f := range r.files {
		if f.Status != domain.StatusApproved {
			continue
		}
		if filter.FileType != "" && f.FileType != filter.FileType {
			continue
		}
		if filter.Semester != 0 && f.Semester != filter.Semester {
			continue
		}
		if filter.Department != "" && f.Department != filter.Department {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(f.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFileRepo) ListByStatus(_ context.Context, status domain.FileStatus) ([]domain.File, error) {
	var out []domain.File
	for _, f := range r.files {
		if f.Status == status {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) ListByUploader(_ context.Context, uploaderID primitive.ObjectID) ([]domain.File, error) {
	var out []domain.File
	for _, f := range r.files {
		if f.UploadedBy.UserID == uploaderID {
			out = append(out, *f)
		}
	}
	return out, nil
}

// RecordDownload mirrors the transactional contract: counter increment and
// log append succeed or fail as one unit, and only for approved files.
func (r *fakeFileRepo) RecordDownload(_ context.Context, fileID, userID primitive.ObjectID) (*domain.File, error) {
	f, ok := r.files[fileID]
	if !ok || f.Status != domain.StatusApproved {
		return nil, repository.ErrNotFound
	}
	f.DownloadsCount++
	r.downloads = append(r.downloads, domain.DownloadLogEntry{
		FileID:       fileID,
		UserID:       userID,
		DownloadedAt: time.Now().UTC(),
	})
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) CountByStatus(_ context.Context, status domain.FileStatus) (int64, error) {
	var n int64
	for _, f := range r.files {
		if status == "" || f.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeFileRepo) CountByUploader(_ context.Context, uploaderID primitive.ObjectID, status domain.FileStatus) (int64, error) {
	var n int64
	for _, f := range r.files {
		if f.UploadedBy.UserID != uploaderID {
			continue
		}
		if status != "" && f.Status != status {
			continue
		}
		n++
	}
	return n, nil
}

func (r *fakeFileRepo) SumDownloadsByUploader(_ context.Context, uploaderID primitive.ObjectID) (int64, error) {
	var n int64
	for _, f := range r.files {
		if f.UploadedBy.UserID == uploaderID {
			n += f.DownloadsCount
		}
	}
	return n, nil
}

func (r *fakeFileRepo) CountRatedBy(_ context.Context, studentID primitive.ObjectID) (int64, error) {
	var n int64
	for _, f := range r.files {
		for _, rating := range f.Ratings {
			if rating.StudentID == studentID {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *fakeFileRepo) MostDownloaded(_ context.Context, limit int64) ([]domain.File, error) {
	var out []domain.File
	for _, f := range r.files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DownloadsCount > out[j].DownloadsCount })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFileRepo) TopUploaders(context.Context, int64) ([]repository.UploaderStat, error) {
	return nil, nil
}

func (r *fakeFileRepo) CountByType(context.Context) ([]repository.TypeCount, error) {
	return nil, nil
}

func (r *fakeFileRepo) UploadsPerDay(context.Context, time.Time) ([]repository.DayCount, error) {
	return nil, nil
}

// --- download log ---

type fakeDownloadLogRepo struct {
	files *fakeFileRepo
}

func (r *fakeDownloadLogRepo) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, e := range r.files.downloads {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeDownloadLogRepo) ListByFile(_ context.Context, fileID primitive.ObjectID, limit int64) ([]domain.DownloadLogEntry, error) {
	var out []domain.DownloadLogEntry
	for _, e := range r.files.downloads {
		if e.FileID == fileID {
			out = append(out, e)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- storage ---

type storedObject struct {
	contentType string
	data        []byte
}

type fakeStorage struct {
	objects   map[string]storedObject
	uploadErr error
	deleted   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]storedObject)}
}

func (s *fakeStorage) Upload(_ context.Context, key, contentType string, _ int64, body io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = storedObject{contentType: contentType, data: data}
	return nil
}

func (s *fakeStorage) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// --- event sink ---

type recordingSink struct {
	events []notify.Event
}

func (s *recordingSink) Enqueue(e notify.Event) {
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind())
	}
	return out
}
