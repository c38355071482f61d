package repository

import (
	"context"
	"errors"

	"mix/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for abuse reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, moderatorNotes string) error
	CountAgainstUser(ctx context.Context, reportedID uint) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("Reported").
		First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	q := r.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var reports []models.Report
	if err := q.
		Preload("Reporter").
		Preload("Reported").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reports, total, nil
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, moderatorNotes string) error {
	updates := map[string]interface{}{"status": status}
	if moderatorNotes != "" {
		updates["moderator_notes"] = moderatorNotes
	}

	res := r.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Report", id)
	}
	return nil
}

func (r *reportRepository) CountAgainstUser(ctx context.Context, reportedID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("reported_id = ?", reportedID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
