package membership

import (
	"time"
)

// Status is the member lifecycle state. Invited and active members both
// consume a seat; deactivated members keep their history but free the seat.
type Status string

var (
	Invited     Status = "invited"
	Active      Status = "active"
	Deactivated Status = "deactivated"
)

func (s Status) String() string {
	switch s {
	case Invited, Active, Deactivated:
		return string(s)
	default:
		return ""
	}
}

// Role is data carried on the membership; permission checks always go
// through the access resolver, never by inspecting the role string.
type Role string

var (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

type Membership struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	TenantID string `gorm:"column:tenant_id;index:idx_memberships_tenant_email,unique"`
	Email    string `gorm:"column:email;index:idx_memberships_tenant_email,unique"`
	Role     Role   `gorm:"column:role"`
	Status   Status `gorm:"column:status"`

	InviteCode    string     `gorm:"column:invite_code"`
	InvitedAt     *time.Time `gorm:"column:invited_at"`
	JoinedAt      *time.Time `gorm:"column:joined_at"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
}

func (Membership) TableName() string { return "memberships" }

type View struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	InvitedAt *time.Time `json:"invited_at,omitempty"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (m *Membership) ToView() *View {
	return &View{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Email:     m.Email,
		Role:      string(m.Role),
		Status:    m.Status.String(),
		InvitedAt: m.InvitedAt,
		JoinedAt:  m.JoinedAt,
		CreatedAt: m.CreatedAt,
	}
}
