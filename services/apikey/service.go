package apikey

import (
	"context"
	"fmt"
	"time"

	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/pkg/security"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const keyPrefix = "tak_live_%s"

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[APIKey]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[APIKey](p.DB),
	}
}

// BootstrapKey builds the default server key created with every tenant. The
// caller persists it inside the tenant creation transaction; the returned
// secret is shown once and never stored.
func (s *Service) BootstrapKey(tenantID string) (*APIKey, string, error) {
	secret, err := security.GenerateBase64Secret(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate api key secret: %w", err)
	}

	hash, err := security.HashArgon2(secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash api key secret: %w", err)
	}

	id := s.node.Generate().String()
	return &APIKey{
		ID:         id,
		TenantID:   tenantID,
		KeyID:      fmt.Sprintf(keyPrefix, id),
		KeyType:    APIKeyTypeServer,
		SecretHash: hash,
		Scopes:     []string{"*"},
		Status:     string(APIKeyStatusActive),
		CreatedAt:  time.Now(),
	}, secret, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	keys, err := s.repo.Find(ctx, &APIKey{TenantID: tenantID})
	if err != nil {
		zapLog.Error("failed to list api keys", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to list api keys")
	}

	out := make([]*View, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.ToView())
	}
	return out, nil
}

// Issue creates a new key for a tenant and returns the one-time secret in
// the view.
func (s *Service) Issue(ctx context.Context, tenantID string, keyType APIKeyType, scopes []string) (*View, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if keyType == "" {
		keyType = APIKeyTypeServer
	}
	if len(scopes) == 0 {
		scopes = []string{"*"}
	}

	secret, err := security.GenerateBase64Secret(32)
	if err != nil {
		zapLog.Error("failed to generate api key secret", zap.Error(err))
		return nil, errutil.Internal("failed to issue api key")
	}

	hash, err := security.HashArgon2(secret)
	if err != nil {
		zapLog.Error("failed to hash api key secret", zap.Error(err))
		return nil, errutil.Internal("failed to issue api key")
	}

	id := s.node.Generate().String()
	key := &APIKey{
		ID:         id,
		TenantID:   tenantID,
		KeyID:      fmt.Sprintf(keyPrefix, id),
		KeyType:    keyType,
		SecretHash: hash,
		Scopes:     scopes,
		Status:     string(APIKeyStatusActive),
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, key); err != nil {
		zapLog.Error("failed to create api key", zap.Error(err), zap.String("tenant_id", tenantID))
		return nil, errutil.Internal("failed to issue api key")
	}

	view := key.ToView()
	view.Secret = secret
	return view, nil
}

func (s *Service) Revoke(ctx context.Context, tenantID, keyID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	key, err := s.repo.FindOne(ctx, &APIKey{TenantID: tenantID, KeyID: keyID})
	if err != nil {
		zapLog.Error("failed to get api key", zap.Error(err), zap.String("key_id", keyID))
		return errutil.Internal("failed to revoke api key")
	}
	if key == nil {
		return errutil.NotFound("api key not found")
	}

	now := time.Now()
	if err := s.repo.Update(ctx, key.ID, map[string]any{
		"status":     string(APIKeyStatusRevoked),
		"revoked_at": now,
	}); err != nil {
		zapLog.Error("failed to revoke api key", zap.Error(err), zap.String("key_id", keyID))
		return errutil.Internal("failed to revoke api key")
	}

	return nil
}

// Verify matches a presented secret against the stored hash. Revoked and
// expired keys never verify.
func (s *Service) Verify(ctx context.Context, keyID, secret string) (*APIKey, error) {
	key, err := s.repo.FindOne(ctx, &APIKey{KeyID: keyID})
	if err != nil {
		return nil, errutil.Internal("failed to verify api key")
	}
	if key == nil || key.Status != string(APIKeyStatusActive) {
		return nil, errutil.Unauthorized("invalid api key")
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil, errutil.Unauthorized("invalid api key")
	}

	ok, err := security.VerifyArgon2(secret, key.SecretHash)
	if err != nil || !ok {
		return nil, errutil.Unauthorized("invalid api key")
	}

	return key, nil
}
