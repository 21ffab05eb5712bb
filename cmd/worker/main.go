package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/db"
	"tenantadmin-controlplane/pkg/logger"
	"tenantadmin-controlplane/pkg/minio"
	"tenantadmin-controlplane/pkg/task"
	"tenantadmin-controlplane/services/provisioning/worker"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		minio.Client,
		task.Server,
		worker.Module,
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
