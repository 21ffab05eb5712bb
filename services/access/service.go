package access

import (
	"context"
	"time"

	"tenantadmin-controlplane/pkg/middleware"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/services/tenant"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const resolutionTTL = 30 * time.Second

type Service struct {
	resolver *Resolver
	cache    *ResolutionCache
	repo     repository.Repository[tenant.Tenant]
	group    singleflight.Group
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Resolver *Resolver
	Cache    *ResolutionCache
}

func NewService(p ServiceParams) *Service {
	return &Service{
		resolver: p.Resolver,
		cache:    p.Cache,
		repo:     repository.ProvideStore[tenant.Tenant](p.DB),
	}
}

// ExecutionContextFrom converts the middleware value into the resolver input.
func ExecutionContextFrom(ctx context.Context) ExecutionContext {
	ec := middleware.FromContext(ctx)
	return ExecutionContext{
		IsSuperAdmin: ec.IsSuperAdmin,
		Mode:         Mode(ec.Mode),
		TenantID:     ec.TenantID,
	}
}

// ResolveForContext resolves access for the caller's execution context,
// loading the bound tenant's subscription state when one is bound. Lookup
// failures surface as errors; resolution itself cannot fail.
func (s *Service) ResolveForContext(ctx context.Context) (Access, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	ec := ExecutionContextFrom(ctx)

	// The cache is keyed by the execution context so a hit skips the tenant
	// lookup; subscription changes invalidate, everything else ages out with
	// the TTL.
	key := keyFor(ec)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	sub := SubscriptionState{}
	if ec.TenantID != "" && !(ec.IsSuperAdmin && ec.Mode == ModePlatform) {
		loaded, err, _ := s.group.Do(ec.TenantID, func() (interface{}, error) {
			return s.repo.FindOne(ctx, &tenant.Tenant{ID: ec.TenantID})
		})
		if err != nil {
			zapLog.Error("failed to load tenant for access resolution", zap.Error(err), zap.String("tenant_id", ec.TenantID))
			return Access{}, err
		}

		t, _ := loaded.(*tenant.Tenant)
		if t == nil {
			// Unknown tenant binds nothing; fall through to the unbound
			// read-only surface.
			ec.TenantID = ""
		} else {
			sub = SubscriptionState{
				Status:            t.SubscriptionStatus.String(),
				Tier:              t.SubscriptionTier,
				SeatLimitOverride: t.SeatLimit,
			}
		}
	}

	resolved := s.resolver.Resolve(ec, sub)
	s.cache.Set(key, resolved)

	return resolved, nil
}

// Invalidate drops cached resolutions for a tenant after its subscription
// state changes.
func (s *Service) Invalidate(tenantID string) {
	s.cache.InvalidateTenant(tenantID)
}
