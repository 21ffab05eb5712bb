package tenant

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the tenant lifecycle state. Tenants are never hard-deleted;
// archive is the terminal transition.
type Status string

var (
	Pending      Status = "pending"
	Provisioning Status = "provisioning"
	Active       Status = "active"
	Archived     Status = "archived"
)

func (s Status) String() string {
	switch s {
	case Pending, Provisioning, Active, Archived:
		return string(s)
	default:
		return ""
	}
}

// SubscriptionStatus mirrors the payment provider's subscription states.
type SubscriptionStatus string

var (
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionTrialing          SubscriptionStatus = "trialing"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionCanceled          SubscriptionStatus = "canceled"
	SubscriptionIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionUnpaid            SubscriptionStatus = "unpaid"
)

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue,
		SubscriptionCanceled, SubscriptionIncomplete, SubscriptionIncompleteExpired,
		SubscriptionUnpaid:
		return true
	default:
		return false
	}
}

func (s SubscriptionStatus) String() string { return string(s) }

// IsActive reports whether the subscription grants paid access.
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionActive || s == SubscriptionTrialing
}

type Tenant struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Code   string `gorm:"column:code;uniqueIndex"`
	Name   string `gorm:"column:name"`
	Slug   string `gorm:"column:slug;uniqueIndex"`
	Status Status `gorm:"column:status"`

	SubscriptionStatus   SubscriptionStatus `gorm:"column:subscription_status"`
	SubscriptionTier     string             `gorm:"column:subscription_tier"`
	StripeCustomerID     string             `gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID string             `gorm:"column:stripe_subscription_id"`

	// SeatLimit overrides the plan default when set.
	SeatLimit *int `gorm:"column:seat_limit"`

	CurrentPeriodEnd  *time.Time `gorm:"column:current_period_end"`
	GracePeriodEndsAt *time.Time `gorm:"column:grace_period_ends_at"`
	LastPaymentAt     *time.Time `gorm:"column:last_payment_at"`

	LogoObjectKey string            `gorm:"column:logo_object_key"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata"`
}

func (Tenant) TableName() string { return "tenants" }

// View is the JSON shape returned by the tenant API.
type View struct {
	ID                   string     `json:"id"`
	Code                 string     `json:"code"`
	Name                 string     `json:"name"`
	Slug                 string     `json:"slug"`
	Status               string     `json:"status"`
	SubscriptionStatus   string     `json:"subscription_status"`
	SubscriptionTier     string     `json:"subscription_tier"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
	SeatLimit            *int       `json:"seat_limit,omitempty"`
	SeatCount            int64      `json:"seat_count"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	GracePeriodEndsAt    *time.Time `json:"grace_period_ends_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (m *Tenant) ToView(seatCount int64) *View {
	return &View{
		ID:                   m.ID,
		Code:                 m.Code,
		Name:                 m.Name,
		Slug:                 m.Slug,
		Status:               m.Status.String(),
		SubscriptionStatus:   m.SubscriptionStatus.String(),
		SubscriptionTier:     m.SubscriptionTier,
		StripeCustomerID:     m.StripeCustomerID,
		StripeSubscriptionID: m.StripeSubscriptionID,
		SeatLimit:            m.SeatLimit,
		SeatCount:            seatCount,
		CurrentPeriodEnd:     m.CurrentPeriodEnd,
		GracePeriodEndsAt:    m.GracePeriodEndsAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
