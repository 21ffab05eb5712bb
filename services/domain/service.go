package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tenantadmin-controlplane/pkg/dns"
	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/pkg/util"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	repo   repository.Repository[Domain]
	verify func(hostname, code string) error
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		repo:   repository.ProvideStore[Domain](p.DB),
		verify: dns.VerifyDNSRecord,
	}
}

// SystemDomain builds the default <slug>.<root> hostname created with every
// tenant. The caller persists it inside the tenant creation transaction.
func (s *Service) SystemDomain(tenantID, slugName, rootDomain string) *Domain {
	now := time.Now()
	return &Domain{
		ID:                 s.node.Generate().String(),
		TenantID:           tenantID,
		Type:               System,
		Hostname:           fmt.Sprintf("%s.%s", slugName, rootDomain),
		VerificationMethod: DNS,
		CertificateStatus:  Active,
		IsPrimary:          true,
		Verified:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	domains, err := s.repo.Find(ctx, &Domain{TenantID: tenantID})
	if err != nil {
		zapLog.Error("failed to list domains", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to list domains")
	}

	out := make([]*View, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.ToView())
	}
	return out, nil
}

// Add registers a custom hostname for a tenant. The domain starts
// unverified; the returned view carries the TXT code the tenant must publish.
func (s *Service) Add(ctx context.Context, tenantID, hostname string) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return nil, errutil.ValidationFailed("hostname is required")
	}

	exist, err := s.repo.FindOne(ctx, &Domain{Hostname: hostname})
	if err != nil {
		zapLog.Error("failed query get domain by hostname", zap.Error(err))
		return nil, errutil.Internal("failed to check existing domain")
	}
	if exist != nil {
		return nil, errutil.Conflict("hostname already registered")
	}

	code := util.GenerateVerificationCode()
	now := time.Now()
	record := &Domain{
		ID:                 s.node.Generate().String(),
		TenantID:           tenantID,
		Type:               Custom,
		Hostname:           hostname,
		VerificationMethod: DNS,
		VerificationCode:   &code,
		CertificateStatus:  Pending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create domain", zap.Error(err), zap.String("hostname", hostname))
		return nil, errutil.Internal("failed to create domain")
	}

	return record.ToView(), nil
}

// Verify checks the TXT record for a pending custom domain and promotes it
// when the published code matches.
func (s *Service) Verify(ctx context.Context, tenantID, hostname string) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if strings.TrimSpace(hostname) == "" {
		return nil, errutil.ValidationFailed("hostname is required")
	}

	var record Domain
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND hostname = ?", tenantID, hostname).
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("domain not found")
		}
		zapLog.Error("failed to query domain", zap.Error(err), zap.String("hostname", hostname))
		return nil, errutil.Internal("failed to query domain")
	}

	if record.Verified {
		return record.ToView(), nil
	}

	if record.VerificationMethod != DNS || record.VerificationCode == nil {
		return nil, errutil.UnprocessableEntity(
			fmt.Sprintf("verification method %s not supported", record.VerificationMethod))
	}

	if err := s.verify(record.Hostname, *record.VerificationCode); err != nil {
		zapLog.Warn("DNS verification failed", zap.String("hostname", record.Hostname), zap.Error(err))
		return nil, errutil.UnprocessableEntity(fmt.Sprintf("dns verification failed: %v", err))
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"verified":           true,
		"verified_at":        now,
		"certificate_status": Active,
		"updated_at":         now,
	}).Error; err != nil {
		zapLog.Error("failed to update domain", zap.Error(err), zap.String("hostname", record.Hostname))
		return nil, errutil.Internal("failed to update domain")
	}

	zapLog.Info("domain verified",
		zap.String("tenant_id", record.TenantID),
		zap.String("hostname", record.Hostname),
	)

	record.Verified = true
	record.VerifiedAt = &now
	record.CertificateStatus = Active
	return record.ToView(), nil
}
