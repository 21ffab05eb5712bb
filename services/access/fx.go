package access

import (
	"go.uber.org/fx"
)

var Module = fx.Module("access",
	fx.Provide(
		NewResolver,
		func() *ResolutionCache { return NewResolutionCache(resolutionTTL) },
		NewService,
		NewHandler,
	),
	fx.Invoke(registerRoutes),
)
