package models

import "time"

// SubscriptionStatus mirrors the payment provider's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Subscription ties a user's tier to the external payment provider's
// identifiers. Rows are mutated only by provider webhook events; the provider
// itself is an opaque collaborator.
type Subscription struct {
	ID                     uint               `gorm:"primaryKey" json:"id"`
	UserID                 uint               `gorm:"not null;uniqueIndex" json:"user_id"`
	Tier                   SubscriptionTier   `gorm:"type:varchar(20);not null" json:"tier"`
	Status                 SubscriptionStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	ProviderSubscriptionID string             `gorm:"index" json:"provider_subscription_id"`
	ProviderCustomerID     string             `json:"provider_customer_id"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// ProviderEventLog records applied webhook events so replays are idempotent.
type ProviderEventLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProviderEventID string    `gorm:"uniqueIndex;not null" json:"provider_event_id"`
	EventType       string    `gorm:"not null" json:"event_type"`
	AppliedAt       time.Time `gorm:"autoCreateTime" json:"applied_at"`
}

// TableName specifies the table name for GORM.
func (ProviderEventLog) TableName() string {
	return "provider_event_logs"
}
