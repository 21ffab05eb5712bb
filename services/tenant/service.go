package tenant

import (
	"context"
	"fmt"
	"mime/multipart"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/db/option"
	"tenantadmin-controlplane/pkg/db/pagination"
	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/pkg/sequence"
	"tenantadmin-controlplane/pkg/task"
	"tenantadmin-controlplane/services/apikey"
	"tenantadmin-controlplane/services/domain"
	"tenantadmin-controlplane/services/provisioning"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/hibiken/asynq"
	miniolib "github.com/minio/minio-go/v7"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	asynq   task.Enqueuer
	node    *snowflake.Node
	seq     sequence.Generator
	config  *config.Config
	repo    repository.Repository[Tenant]
	domains *domain.Service
	keys    *apikey.Service
	storage *miniolib.Client
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Asynq   task.Enqueuer
	Node    *snowflake.Node
	Seq     sequence.Generator
	Config  *config.Config
	Domains *domain.Service
	Keys    *apikey.Service
	Storage *miniolib.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		asynq:   p.Asynq,
		node:    p.Node,
		seq:     p.Seq,
		config:  p.Config,
		repo:    repository.ProvideStore[Tenant](p.DB),
		domains: p.Domains,
		keys:    p.Keys,
		storage: p.Storage,
	}
}

// seatCount counts seats without importing the membership package, which
// depends on this one.
func (s *Service) seatCount(ctx context.Context, tenantID string) int64 {
	var count int64
	s.db.WithContext(ctx).Table("memberships").
		Where("tenant_id = ? AND status IN ?", tenantID, []string{"invited", "active"}).
		Count(&count)
	return count
}

func (s *Service) List(ctx context.Context, page pagination.Pagination) ([]*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	opts := []option.QueryOption{
		option.ApplyPagination(page),
	}

	tenants, err := s.repo.Find(ctx, &Tenant{}, opts...)
	if err != nil {
		zapLog.Error("failed to list tenants", zap.Error(err))
		return nil, errutil.Internal("failed to list tenants")
	}

	out := make([]*View, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, t.ToView(s.seatCount(ctx, t.ID)))
	}
	return out, nil
}

type CreateInput struct {
	Name             string
	Slug             string
	StripeCustomerID string
}

// Create provisions a new tenant: the record itself, its system domain and
// a bootstrap server api key in one transaction, then the async provisioning
// fan-out. The tenant starts in provisioning; the defaults task activates it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if in.Name == "" {
		return nil, errutil.ValidationFailed("name is required")
	}
	if s.config.RootDomain == "" {
		zapLog.Error("failed to create tenant, root domain not configured")
		return nil, errutil.Internal("failed to create tenant, root domain not configured")
	}

	slugName := in.Slug
	if slugName == "" {
		slugName = slug.Make(in.Name)
	}

	exist, err := s.repo.FindOne(ctx, &Tenant{Slug: slugName})
	if err != nil {
		zapLog.Error("failed query get tenant by slug", zap.Error(err))
		return nil, errutil.Internal("failed to check existing tenant")
	}
	if exist != nil {
		zapLog.Warn("tenant already exists", zap.String("slug", slugName))
		return nil, errutil.Conflict("tenant already exists")
	}

	tenantID := s.node.Generate().String()
	tenantCode, err := s.seq.NextTenantCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate tenant code", zap.Error(err))
		return nil, errutil.Internal("failed to create tenant")
	}

	systemDomain := s.domains.SystemDomain(tenantID, slugName, s.config.RootDomain)

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		record := &Tenant{
			ID:                 tenantID,
			Code:               tenantCode,
			Name:               in.Name,
			Slug:               slugName,
			Status:             Provisioning,
			SubscriptionStatus: SubscriptionTrialing,
			SubscriptionTier:   s.config.Stripe.DefaultTier,
			StripeCustomerID:   in.StripeCustomerID,
		}

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		if err := tx.Create(systemDomain).Error; err != nil {
			return fmt.Errorf("failed to create domain: %w", err)
		}

		key, _, err := s.keys.BootstrapKey(tenantID)
		if err != nil {
			return err
		}

		if err := tx.Create(key).Error; err != nil {
			return fmt.Errorf("failed to create api key: %w", err)
		}

		return nil
	}); err != nil {
		zapLog.Error("failed to create tenant transaction", zap.Error(err))
		return nil, errutil.Internal(err.Error())
	}

	// Fan out only after the transaction commits; workers look the tenant
	// up by id and must be able to see the row.
	tasks, err := provisioning.Tasks(provisioning.Payload{
		TenantID:   tenantID,
		TenantSlug: slugName,
		Hostname:   systemDomain.Hostname,
	})
	if err != nil {
		zapLog.Error("failed to build provisioning tasks", zap.Error(err))
		return nil, errutil.Internal("failed to enqueue provisioning tasks")
	}

	for _, t := range tasks {
		if _, err := s.asynq.Enqueue(ctx, t, asynq.Queue(provisioning.Queue)); err != nil {
			zapLog.Error("failed enqueue provisioning task", zap.String("task_type", t.Type()), zap.Error(err))
			return nil, errutil.Internal("failed to enqueue provisioning tasks")
		}
	}

	return s.Get(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID string) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	record, err := s.repo.FindOne(ctx, &Tenant{ID: tenantID})
	if err != nil {
		zapLog.Error("failed query get tenant by id", zap.Error(err))
		return nil, errutil.Internal("failed to get tenant")
	}
	if record == nil {
		zapLog.Warn("tenant not found", zap.String("tenant_id", tenantID))
		return nil, errutil.NotFound("tenant not found")
	}

	return record.ToView(s.seatCount(ctx, tenantID)), nil
}

type UpdateInput struct {
	Name      *string
	SeatLimit *int
}

// Update changes the mutable tenant fields. The seat override is platform
// surface only; handlers gate it on the execution context.
func (s *Service) Update(ctx context.Context, tenantID string, in UpdateInput) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	values := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, errutil.ValidationFailed("name cannot be empty")
		}
		values["name"] = *in.Name
	}
	if in.SeatLimit != nil {
		if *in.SeatLimit < 0 {
			return nil, errutil.ValidationFailed("seat_limit cannot be negative")
		}
		values["seat_limit"] = *in.SeatLimit
	}
	if len(values) == 0 {
		return s.Get(ctx, tenantID)
	}

	if err := s.repo.Update(ctx, tenantID, values); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("tenant not found")
		}
		zap.L().Error("failed to update tenant", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to update tenant")
	}

	return s.Get(ctx, tenantID)
}

// Archive is the terminal lifecycle transition. Archived tenants keep their
// rows; nothing is hard-deleted.
func (s *Service) Archive(ctx context.Context, tenantID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	record, err := s.repo.FindOne(ctx, &Tenant{ID: tenantID})
	if err != nil {
		return errutil.Internal("failed to archive tenant")
	}
	if record == nil {
		return errutil.NotFound("tenant not found")
	}
	if record.Status == Archived {
		return nil
	}

	if err := s.repo.Update(ctx, tenantID, map[string]any{
		"status": Archived,
	}); err != nil {
		return errutil.Internal("failed to archive tenant")
	}
	return nil
}

// UploadLogo stores a branding asset in object storage and records the
// object key on the tenant.
func (s *Service) UploadLogo(ctx context.Context, tenantID string, file *multipart.FileHeader) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if s.storage == nil {
		return nil, errutil.UnprocessableEntity("object storage not configured")
	}

	record, err := s.repo.FindOne(ctx, &Tenant{ID: tenantID})
	if err != nil {
		return nil, errutil.Internal("failed to get tenant")
	}
	if record == nil {
		return nil, errutil.NotFound("tenant not found")
	}

	src, err := file.Open()
	if err != nil {
		return nil, errutil.BadRequest("failed to read upload")
	}
	defer src.Close()

	objectKey := fmt.Sprintf("tenants/%s/branding/logo", tenantID)
	_, err = s.storage.PutObject(ctx, s.config.Minio.BucketName, objectKey, src, file.Size, miniolib.PutObjectOptions{
		ContentType: file.Header.Get("Content-Type"),
	})
	if err != nil {
		zapLog.Error("failed to upload logo", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to upload logo")
	}

	if err := s.repo.Update(ctx, tenantID, map[string]any{
		"logo_object_key": objectKey,
	}); err != nil {
		return nil, errutil.Internal("failed to update tenant")
	}

	return s.Get(ctx, tenantID)
}
