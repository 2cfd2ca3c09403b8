package service

import (
	"context"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"
)

// Dashboard is the admin analytics summary.
type Dashboard struct {
	TotalUsers      int64                     `json:"totalUsers"`
	TotalStudents   int64                     `json:"totalStudents"`
	TotalFaculty    int64                     `json:"totalFaculty"`
	TotalFiles      int64                     `json:"totalFiles"`
	PendingFiles    int64                     `json:"pendingFiles"`
	ApprovedFiles   int64                     `json:"approvedFiles"`
	RejectedFiles   int64                     `json:"rejectedFiles"`
	MostDownloaded  []domain.File             `json:"mostDownloaded"`
	TopUploaders    []repository.UploaderStat `json:"topUploaders"`
	FilesByType     []repository.TypeCount    `json:"filesByType"`
	UploadsLastWeek []repository.DayCount     `json:"uploadsLastWeek"`
}

// AdminService aggregates portal-wide statistics for the admin dashboard.
type AdminService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type adminService struct {
	users repository.UserRepository
	files repository.FileRepository
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(users repository.UserRepository, files repository.FileRepository) AdminService {
	return &adminService{users: users, files: files}
}

func (s *adminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	var err error

	if d.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if d.TotalStudents, err = s.users.CountByRole(ctx, domain.RoleStudent); err != nil {
		return nil, err
	}
	if d.TotalFaculty, err = s.users.CountByRole(ctx, domain.RoleFaculty); err != nil {
		return nil, err
	}

	if d.TotalFiles, err = s.files.CountByStatus(ctx, ""); err != nil {
		return nil, err
	}
	if d.PendingFiles, err = s.files.CountByStatus(ctx, domain.StatusPending); err != nil {
		return nil, err
	}
	if d.ApprovedFiles, err = s.files.CountByStatus(ctx, domain.StatusApproved); err != nil {
		return nil, err
	}
	if d.RejectedFiles, err = s.files.CountByStatus(ctx, domain.StatusRejected); err != nil {
		return nil, err
	}

	if d.MostDownloaded, err = s.files.MostDownloaded(ctx, 5); err != nil {
		return nil, err
	}
	if d.TopUploaders, err = s.files.TopUploaders(ctx, 5); err != nil {
		return nil, err
	}
	if d.FilesByType, err = s.files.CountByType(ctx); err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -7)
	if d.UploadsLastWeek, err = s.files.UploadsPerDay(ctx, since); err != nil {
		return nil, err
	}

	return d, nil
}
