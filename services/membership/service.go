package membership

import (
	"context"
	"strings"
	"time"

	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/pkg/util"
	"tenantadmin-controlplane/services/access"
	"tenantadmin-controlplane/services/tenant"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	resolver *access.Resolver
	repo     repository.Repository[Membership]
	tenants  repository.Repository[tenant.Tenant]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Resolver *access.Resolver
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		resolver: p.Resolver,
		repo:     repository.ProvideStore[Membership](p.DB),
		tenants:  repository.ProvideStore[tenant.Tenant](p.DB),
	}
}

// SeatCount counts the members that occupy a seat: invited and active.
func (s *Service) SeatCount(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Membership{}).
		Where("tenant_id = ? AND status IN ?", tenantID, []Status{Invited, Active}).
		Count(&count).Error
	return count, err
}

func (s *Service) List(ctx context.Context, tenantID string) ([]*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	members, err := s.repo.Find(ctx, &Membership{TenantID: tenantID})
	if err != nil {
		zapLog.Error("failed to list memberships", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to list memberships")
	}

	out := make([]*View, 0, len(members))
	for _, m := range members {
		out = append(out, m.ToView())
	}
	return out, nil
}

// seatLimitFor resolves the tenant's effective seat limit from its current
// subscription state.
func (s *Service) seatLimitFor(t *tenant.Tenant) int {
	resolved := s.resolver.Resolve(
		access.ExecutionContext{Mode: access.ModeCompany, TenantID: t.ID},
		access.SubscriptionState{
			Status:            t.SubscriptionStatus.String(),
			Tier:              t.SubscriptionTier,
			SeatLimitOverride: t.SeatLimit,
		},
	)
	return resolved.SeatLimit
}

// Invite adds a member when a seat is free. The effective seat limit comes
// from the tenant's plan, or its override when one is set.
func (s *Service) Invite(ctx context.Context, tenantID, email string, role Role) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errutil.ValidationFailed("email is required")
	}
	if role == "" {
		role = RoleOperator
	}
	if !role.Valid() {
		return nil, errutil.ValidationFailed("invalid role")
	}

	t, err := s.tenants.FindOne(ctx, &tenant.Tenant{ID: tenantID})
	if err != nil {
		zapLog.Error("failed to get tenant", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to invite member")
	}
	if t == nil {
		return nil, errutil.NotFound("tenant not found")
	}

	exist, err := s.repo.FindOne(ctx, &Membership{TenantID: tenantID, Email: email})
	if err != nil {
		zapLog.Error("failed query get membership by email", zap.Error(err))
		return nil, errutil.Internal("failed to invite member")
	}
	if exist != nil && exist.Status != Deactivated {
		return nil, errutil.Conflict("member already exists")
	}

	seats, err := s.SeatCount(ctx, tenantID)
	if err != nil {
		zapLog.Error("failed to count seats", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to invite member")
	}

	if limit := s.seatLimitFor(t); seats >= int64(limit) {
		zapLog.Warn("seat limit reached",
			zap.String("tenant_id", tenantID),
			zap.Int64("seats", seats),
			zap.Int("limit", limit),
		)
		return nil, errutil.UnprocessableEntity("seat limit reached")
	}

	// Invite codes double as the credential on Accept, so they come from
	// crypto/rand rather than an enumerable counter.
	code := util.GenerateVerificationCode()

	now := time.Now()
	member := &Membership{
		ID:         s.node.Generate().String(),
		TenantID:   tenantID,
		Email:      email,
		Role:       role,
		Status:     Invited,
		InviteCode: code,
		InvitedAt:  &now,
	}

	// Re-inviting a deactivated member reuses the row.
	if exist != nil {
		if err := s.repo.Update(ctx, exist.ID, map[string]any{
			"role":           role,
			"status":         Invited,
			"invite_code":    code,
			"invited_at":     now,
			"deactivated_at": nil,
		}); err != nil {
			zapLog.Error("failed to re-invite member", zap.Error(err))
			return nil, errutil.Internal("failed to invite member")
		}
		member.ID = exist.ID
		member.CreatedAt = exist.CreatedAt
		return member.ToView(), nil
	}

	if err := s.repo.Create(ctx, member); err != nil {
		zapLog.Error("failed to create membership", zap.Error(err))
		return nil, errutil.Internal("failed to invite member")
	}

	return member.ToView(), nil
}

// Accept promotes an invited member on a matching invite code.
func (s *Service) Accept(ctx context.Context, tenantID, email, code string) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	member, err := s.repo.FindOne(ctx, &Membership{TenantID: tenantID, Email: strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		return nil, errutil.Internal("failed to accept invite")
	}
	if member == nil || member.Status != Invited {
		return nil, errutil.NotFound("invite not found")
	}
	if member.InviteCode == "" || member.InviteCode != code {
		return nil, errutil.Unauthorized("invalid invite code")
	}

	now := time.Now()
	if err := s.repo.Update(ctx, member.ID, map[string]any{
		"status":      Active,
		"joined_at":   now,
		"invite_code": "",
	}); err != nil {
		return nil, errutil.Internal("failed to accept invite")
	}

	member.Status = Active
	member.JoinedAt = &now
	return member.ToView(), nil
}

func (s *Service) Deactivate(ctx context.Context, tenantID, memberID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	member, err := s.repo.FindOne(ctx, &Membership{ID: memberID, TenantID: tenantID})
	if err != nil {
		return errutil.Internal("failed to deactivate member")
	}
	if member == nil {
		return errutil.NotFound("member not found")
	}
	if member.Status == Deactivated {
		return nil
	}

	now := time.Now()
	if err := s.repo.Update(ctx, member.ID, map[string]any{
		"status":         Deactivated,
		"deactivated_at": now,
	}); err != nil {
		return errutil.Internal("failed to deactivate member")
	}
	return nil
}

// Reactivate restores a deactivated member, subject to the same seat guard
// as Invite.
func (s *Service) Reactivate(ctx context.Context, tenantID, memberID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	member, err := s.repo.FindOne(ctx, &Membership{ID: memberID, TenantID: tenantID})
	if err != nil {
		return errutil.Internal("failed to reactivate member")
	}
	if member == nil {
		return errutil.NotFound("member not found")
	}
	if member.Status != Deactivated {
		return nil
	}

	t, err := s.tenants.FindOne(ctx, &tenant.Tenant{ID: tenantID})
	if err != nil || t == nil {
		return errutil.Internal("failed to reactivate member")
	}

	seats, err := s.SeatCount(ctx, tenantID)
	if err != nil {
		return errutil.Internal("failed to reactivate member")
	}
	if limit := s.seatLimitFor(t); seats >= int64(limit) {
		return errutil.UnprocessableEntity("seat limit reached")
	}

	if err := s.repo.Update(ctx, member.ID, map[string]any{
		"status":         Active,
		"deactivated_at": nil,
	}); err != nil {
		return errutil.Internal("failed to reactivate member")
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, tenantID, memberID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	member, err := s.repo.FindOne(ctx, &Membership{ID: memberID, TenantID: tenantID})
	if err != nil {
		return errutil.Internal("failed to remove member")
	}
	if member == nil {
		return errutil.NotFound("member not found")
	}
	if member.Role == RoleOwner {
		return errutil.UnprocessableEntity("cannot remove the owner")
	}

	if err := s.db.WithContext(ctx).Delete(&Membership{}, "id = ?", member.ID).Error; err != nil {
		return errutil.Internal("failed to remove member")
	}
	return nil
}
