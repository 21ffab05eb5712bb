package featureflags

import (
	"context"

	"tenantadmin-controlplane/pkg/config"

	"github.com/Flagsmith/flagsmith-go-client/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("featureflags", fx.Provide(ProvideFeatureFlag))

// FeatureFlag exposes remotely managed flags. Identifiers are tenant IDs
// so rollouts can target individual tenants.
type FeatureFlag interface {
	Features(ctx context.Context, identifier string) ([]flagsmith.Flag, error)
	Flags(ctx context.Context, identifier string, traits ...*flagsmith.Trait) (flagsmith.Flags, error)
}

type featureflag struct {
	client *flagsmith.Client
}

type FeatureParams struct {
	fx.In
	Config *config.Config
}

// ProvideFeatureFlag builds the Flagsmith-backed implementation. Without
// an API key the client stays nil and every lookup returns no flags, so
// plan-derived features are the only source.
func ProvideFeatureFlag(p FeatureParams) FeatureFlag {
	if p.Config.Flagsmith.ApiKey == "" {
		zap.L().Warn("flagsmith api key not set, remote flags disabled")
		return &featureflag{}
	}

	return &featureflag{
		client: flagsmith.NewClient(p.Config.Flagsmith.ApiKey,
			flagsmith.WithBaseURL(p.Config.Flagsmith.Addr),
			flagsmith.WithAnalytics(),
		),
	}
}

func (s *featureflag) Features(ctx context.Context, identifier string) ([]flagsmith.Flag, error) {
	if s.client == nil {
		return nil, nil
	}

	flags, err := s.client.GetEnvironmentFlags()
	if err != nil {
		return nil, err
	}

	return flags.AllFlags(), nil
}

func (s *featureflag) Flags(ctx context.Context, identifier string, traits ...*flagsmith.Trait) (flagsmith.Flags, error) {
	if s.client == nil {
		return flagsmith.Flags{}, nil
	}

	return s.client.GetIdentityFlags(identifier, traits)
}
