package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/repository"
)

const maxReportDetailsLength = 1000

// autoSuspendThreshold is the number of pending-or-resolved reports against
// a user before their account is suspended for review.
const autoSuspendThreshold = 5

// ReportService handles user reports and the admin moderation queue.
type ReportService struct {
	reportRepo repository.ReportRepository
	userRepo   repository.UserRepository
}

// NewReportService returns a new ReportService.
func NewReportService(reportRepo repository.ReportRepository, userRepo repository.UserRepository) *ReportService {
	return &ReportService{reportRepo: reportRepo, userRepo: userRepo}
}

// CreateReport files a report from reporterID about reportedID.
func (s *ReportService) CreateReport(ctx context.Context, reporterID, reportedID uint, reason models.ReportReason, details string) (*models.Report, error) {
	if reporterID == reportedID {
		return nil, models.NewValidationError("Cannot report yourself")
	}
	if !reason.Valid() {
		return nil, models.NewValidationError("Unknown report reason")
	}
	details = strings.TrimSpace(details)
	if utf8.RuneCountInString(details) > maxReportDetailsLength {
		return nil, models.NewValidationError("Report details are too long")
	}
	if reason == models.ReportReasonOther && details == "" {
		return nil, models.NewValidationError("Details are required for this reason")
	}

	if _, err := s.userRepo.GetByID(ctx, reportedID); err != nil {
		return nil, err
	}

	report := &models.Report{
		ReporterID: reporterID,
		ReportedID: reportedID,
		Reason:     reason,
		Details:    details,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.maybeSuspend(ctx, reportedID)
	return report, nil
}

// maybeSuspend suspends an account once the report count crosses the
// threshold. Failures are logged, never surfaced to the reporter.
func (s *ReportService) maybeSuspend(ctx context.Context, reportedID uint) {
	count, err := s.reportRepo.CountAgainstUser(ctx, reportedID)
	if err != nil {
		middleware.Logger.Warn("failed to count reports against user",
			"user_id", reportedID, "error", err)
		return
	}
	if count < autoSuspendThreshold {
		return
	}

	user, err := s.userRepo.GetByID(ctx, reportedID)
	if err != nil || user.Status != models.UserStatusActive {
		return
	}
	user.Status = models.UserStatusSuspended
	if err := s.userRepo.Update(ctx, user); err != nil {
		middleware.Logger.Warn("failed to auto-suspend reported user",
			"user_id", reportedID, "error", err)
		return
	}
	middleware.Logger.Info("auto-suspended user after repeated reports",
		"user_id", reportedID, "report_count", count)
}

// ListReports pages through the moderation queue, optionally filtered by
// status. Admin only; authorization happens at the handler.
func (s *ReportService) ListReports(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, models.NewValidationError("Unknown report status")
	}
	return s.reportRepo.List(ctx, status, limit, offset)
}

// GetReport loads one report with both parties preloaded.
func (s *ReportService) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	return s.reportRepo.GetByID(ctx, id)
}

// ResolveReport moves a report to a new status with optional moderator notes.
func (s *ReportService) ResolveReport(ctx context.Context, id uint, status models.ReportStatus, notes string) (*models.Report, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Unknown report status")
	}
	if err := s.reportRepo.UpdateStatus(ctx, id, status, strings.TrimSpace(notes)); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, id)
}
