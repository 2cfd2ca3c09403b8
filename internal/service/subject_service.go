package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrSubjectExists  = errors.New("subject with this name or code already exists")
	ErrSubjectMissing = errors.New("subject not found")
	ErrInvalidSubject = errors.New("subject requires name, code, semester (1-8) and department")
)

// SubjectInput carries the fields of a create or update request.
type SubjectInput struct {
	SubjectName string
	SubjectCode string
	Description string
	Semester    int
	Department  string
	FacultyID   *primitive.ObjectID
	Credits     int
}

// SubjectService manages the subject catalogue files are attached to.
type SubjectService interface {
	Create(ctx context.Context, in SubjectInput) (*domain.Subject, error)
	List(ctx context.Context, filter repository.SubjectFilter) ([]domain.Subject, error)
	Update(ctx context.Context, id primitive.ObjectID, in SubjectInput) (*domain.Subject, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type subjectService struct {
	subjects repository.SubjectRepository
}

// NewSubjectService creates a new instance of subjectService.
func NewSubjectService(subjects repository.SubjectRepository) SubjectService {
	return &subjectService{subjects: subjects}
}

func (s *subjectService) Create(ctx context.Context, in SubjectInput) (*domain.Subject, error) {
	if err := validateSubjectInput(in); err != nil {
		return nil, err
	}

	subject := &domain.Subject{
		SubjectName: strings.TrimSpace(in.SubjectName),
		SubjectCode: strings.ToUpper(strings.TrimSpace(in.SubjectCode)),
		Description: strings.TrimSpace(in.Description),
		Semester:    in.Semester,
		Department:  strings.TrimSpace(in.Department),
		FacultyID:   in.FacultyID,
		Credits:     in.Credits,
	}

	id, err := s.subjects.Create(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSubjectExists
		}
		return nil, err
	}
	subject.ID = id
	return subject, nil
}

func (s *subjectService) List(ctx context.Context, filter repository.SubjectFilter) ([]domain.Subject, error) {
	return s.subjects.List(ctx, filter)
}

func (s *subjectService) Update(ctx context.Context, id primitive.ObjectID, in SubjectInput) (*domain.Subject, error) {
	if err := validateSubjectInput(in); err != nil {
		return nil, err
	}

	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectMissing
		}
		return nil, err
	}

	subject.SubjectName = strings.TrimSpace(in.SubjectName)
	subject.SubjectCode = strings.ToUpper(strings.TrimSpace(in.SubjectCode))
	subject.Description = strings.TrimSpace(in.Description)
	subject.Semester = in.Semester
	subject.Department = strings.TrimSpace(in.Department)
	subject.FacultyID = in.FacultyID
	subject.Credits = in.Credits

	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *subjectService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.subjects.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSubjectMissing
	}
	return err
}

func validateSubjectInput(in SubjectInput) error {
	if strings.TrimSpace(in.SubjectName) == "" ||
		strings.TrimSpace(in.SubjectCode) == "" ||
		strings.TrimSpace(in.Department) == "" ||
		in.Semester < 1 || in.Semester > 8 {
		return ErrInvalidSubject
	}
	return nil
}
