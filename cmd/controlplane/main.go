package main

import (
	"context"
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/db"
	"tenantadmin-controlplane/pkg/featureflags"
	"tenantadmin-controlplane/pkg/hashistack/secretmanager"
	"tenantadmin-controlplane/pkg/health"
	"tenantadmin-controlplane/pkg/logger"
	"tenantadmin-controlplane/pkg/minio"
	"tenantadmin-controlplane/pkg/otelcol"
	"tenantadmin-controlplane/pkg/otelcol/exporters"
	"tenantadmin-controlplane/pkg/profiling"
	"tenantadmin-controlplane/pkg/redis"
	"tenantadmin-controlplane/pkg/sequence"
	"tenantadmin-controlplane/pkg/server"
	"tenantadmin-controlplane/pkg/task"
	"tenantadmin-controlplane/services/access"
	"tenantadmin-controlplane/services/apikey"
	"tenantadmin-controlplane/services/billing"
	"tenantadmin-controlplane/services/domain"
	"tenantadmin-controlplane/services/membership"
	"tenantadmin-controlplane/services/plan"
	"tenantadmin-controlplane/services/tenant"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		task.Client,
		minio.Client,
		featureflags.Module,
		profiling.Module,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(setupTracing),
		server.ProvideHTTPServer,
		health.Module,
		fx.Invoke(registerMetrics),
		plan.FxModule,
		access.Module,
		billing.Module,
		tenant.Module,
		membership.Module,
		domain.Module,
		apikey.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerMetrics(engine *gin.Engine) {
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func setupTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Otel.Addr == "" {
		return nil
	}

	provide := exporters.ProvideGrpc
	if cfg.Otel.Protocol == "http" {
		provide = exporters.ProvideHttp
	}

	exporter, err := provide(cfg)
	if err != nil {
		return err
	}

	provider := otelcol.ProvideTrace(exporter, "controlplane-api")
	otel.SetTracerProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})

	return nil
}
