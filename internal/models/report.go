package models

import (
	"time"

	"gorm.io/gorm"
)

// ReportStatus tracks a report through the moderation queue.
type ReportStatus string

const (
	// ReportStatusPending is the initial state of a new report.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusReviewing means an admin has picked the report up.
	ReportStatusReviewing ReportStatus = "reviewing"
	// ReportStatusResolved means action was taken.
	ReportStatusResolved ReportStatus = "resolved"
	// ReportStatusDismissed means no action was warranted.
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Valid reports whether the status is one of the known states.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewing, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// ReportReason is the user-selected category for a report.
type ReportReason string

const (
	ReportReasonFakeProfile   ReportReason = "fake_profile"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonInappropriate ReportReason = "inappropriate_content"
	ReportReasonUnderage      ReportReason = "underage"
	ReportReasonOther         ReportReason = "other"
)

// Valid reports whether the reason is one of the known categories.
func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonFakeProfile, ReportReasonHarassment, ReportReasonInappropriate,
		ReportReasonUnderage, ReportReasonOther:
		return true
	}
	return false
}

// Report is a directed moderation report from one user about another.
// End users create reports; only administrators mutate them afterward.
type Report struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ReporterID     uint           `gorm:"not null;index" json:"reporter_id"`
	ReportedID     uint           `gorm:"not null;index" json:"reported_id"`
	Reason         ReportReason   `gorm:"type:varchar(40);not null" json:"reason"`
	Details        string         `gorm:"type:text" json:"details"`
	Status         ReportStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ModeratorNotes string         `gorm:"type:text" json:"moderator_notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Reporter *User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reported *User `gorm:"foreignKey:ReportedID" json:"reported,omitempty"`
}
