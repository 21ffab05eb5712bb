package apikey

import (
	"time"

	"github.com/lib/pq"
)

type APIKeyType string

const (
	APIKeyTypeServer      APIKeyType = "server"
	APIKeyTypePublishable APIKeyType = "publishable"
	APIKeyTypeWebhook     APIKeyType = "webhook"
)

type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "active"
	APIKeyStatusRevoked APIKeyStatus = "revoked"
	APIKeyStatusExpired APIKeyStatus = "expired"
)

type APIKey struct {
	ID         string         `gorm:"column:id;primaryKey"`
	TenantID   string         `gorm:"column:tenant_id;not null;index"`
	KeyID      string         `gorm:"column:key_id;uniqueIndex;not null"` // e.g. tak_live_xxx
	KeyType    APIKeyType     `gorm:"column:key_type;not null"`
	SecretHash string         `gorm:"column:secret_hash;not null"` // argon2id, never plaintext
	Scopes     pq.StringArray `gorm:"column:scopes;type:text[];not null"`
	Status     string         `gorm:"column:status;default:'active';not null"`
	CreatedBy  *string        `gorm:"column:created_by"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	RevokedAt  *time.Time     `gorm:"column:revoked_at"`
	ExpiresAt  *time.Time     `gorm:"column:expires_at"`
}

func (APIKey) TableName() string { return "api_keys" }

// View is the JSON shape returned by the api key endpoints. The secret is
// only present in the response that issued it.
type View struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	KeyID     string     `json:"key_id"`
	KeyType   APIKeyType `json:"key_type"`
	Scopes    []string   `json:"scopes"`
	Status    string     `json:"status"`
	Secret    string     `json:"secret,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (m *APIKey) ToView() *View {
	return &View{
		ID:        m.ID,
		TenantID:  m.TenantID,
		KeyID:     m.KeyID,
		KeyType:   m.KeyType,
		Scopes:    m.Scopes,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}
