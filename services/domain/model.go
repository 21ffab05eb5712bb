package domain

import (
	"time"
)

type DomainType string

var (
	System DomainType = "system"
	Custom DomainType = "custom"
)

func (t DomainType) String() string {
	switch t {
	case System, Custom:
		return string(t)
	default:
		return ""
	}
}

type VerificationMethodType string

var (
	DNS    VerificationMethodType = "dns"
	File   VerificationMethodType = "file"
	Manual VerificationMethodType = "manual"
)

func (t VerificationMethodType) String() string {
	switch t {
	case DNS, File, Manual:
		return string(t)
	default:
		return ""
	}
}

type CertificateStatusType string

var (
	Pending CertificateStatusType = "pending"
	Active  CertificateStatusType = "active"
	Failed  CertificateStatusType = "failed"
)

func (t CertificateStatusType) String() string {
	switch t {
	case Pending, Active, Failed:
		return string(t)
	default:
		return ""
	}
}

type Domain struct {
	ID                 string                 `gorm:"column:id;primaryKey"`
	CreatedAt          time.Time              `gorm:"column:created_at"`
	UpdatedAt          time.Time              `gorm:"column:updated_at"`
	TenantID           string                 `gorm:"column:tenant_id;index"`
	Type               DomainType             `gorm:"column:type"`
	Hostname           string                 `gorm:"column:hostname;uniqueIndex"`
	VerificationMethod VerificationMethodType `gorm:"column:verification_method"`
	VerificationCode   *string                `gorm:"column:verification_code"`
	CertificateStatus  CertificateStatusType  `gorm:"column:certificate_status"`
	Verified           bool                   `gorm:"column:verified"`
	VerifiedAt         *time.Time             `gorm:"column:verified_at"`
	IsPrimary          bool                   `gorm:"column:is_primary"`
}

func (Domain) TableName() string { return "domains" }

type View struct {
	ID                 string     `json:"id"`
	TenantID           string     `json:"tenant_id"`
	Type               string     `json:"type"`
	Hostname           string     `json:"hostname"`
	VerificationMethod string     `json:"verification_method"`
	VerificationCode   *string    `json:"verification_code,omitempty"`
	CertificateStatus  string     `json:"certificate_status"`
	Verified           bool       `json:"verified"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	IsPrimary          bool       `json:"is_primary"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (m *Domain) ToView() *View {
	return &View{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		Type:               m.Type.String(),
		Hostname:           m.Hostname,
		VerificationMethod: m.VerificationMethod.String(),
		VerificationCode:   m.VerificationCode,
		CertificateStatus:  m.CertificateStatus.String(),
		Verified:           m.Verified,
		VerifiedAt:         m.VerifiedAt,
		IsPrimary:          m.IsPrimary,
		CreatedAt:          m.CreatedAt,
	}
}
