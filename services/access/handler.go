package access

import (
	"net/http"

	"tenantadmin-controlplane/pkg/featureflags"
	"tenantadmin-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// View is the wire shape of a resolved access decision.
type View struct {
	PlanKey      string   `json:"plan_key"`
	StoredTier   string   `json:"stored_tier,omitempty"`
	SeatLimit    int      `json:"seat_limit"`
	Capabilities []string `json:"capabilities"`
	Modules      []string `json:"modules"`
}

func viewOf(a Access) View {
	caps := a.Capabilities()
	mods := a.Modules()

	capStrings := make([]string, 0, len(caps))
	for _, c := range caps {
		capStrings = append(capStrings, string(c))
	}

	modStrings := make([]string, 0, len(mods))
	for _, m := range mods {
		modStrings = append(modStrings, string(m))
	}

	return View{
		PlanKey:      a.PlanKey,
		StoredTier:   a.StoredTier,
		SeatLimit:    a.SeatLimit,
		Capabilities: capStrings,
		Modules:      modStrings,
	}
}

type Handler struct {
	service *Service
	flags   featureflags.FeatureFlag
}

type HandlerParams struct {
	fx.In
	Service *Service
	Flags   featureflags.FeatureFlag
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		service: p.Service,
		flags:   p.Flags,
	}
}

func registerRoutes(engine *gin.Engine, h *Handler) {
	v1 := engine.Group("/v1")
	v1.GET("/access", h.Resolve)
	v1.GET("/access/features", h.Features)
}

// Resolve returns the effective plan, capabilities, modules and seat limit
// for the caller's execution context.
func (h *Handler) Resolve(c *gin.Context) {
	resolved, err := h.service.ResolveForContext(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, viewOf(resolved))
}

type featureView struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Source  string `json:"source"`
}

// Features merges plan modules with remotely managed feature flags. Plan
// modules always win; flags only surface features outside the plan matrix.
func (h *Handler) Features(c *gin.Context) {
	ctx := c.Request.Context()

	resolved, err := h.service.ResolveForContext(ctx)
	if err != nil {
		c.Error(err)
		return
	}

	features := make([]featureView, 0)
	for _, m := range resolved.Modules() {
		features = append(features, featureView{
			Name:    string(m),
			Enabled: true,
			Source:  "plan",
		})
	}

	seen := make(map[string]bool, len(features))
	for _, f := range features {
		seen[f.Name] = true
	}

	ec := middleware.FromContext(ctx)
	flags, err := h.flags.Features(ctx, ec.TenantID)
	if err == nil {
		for _, f := range flags {
			if seen[f.FeatureName] {
				continue
			}
			features = append(features, featureView{
				Name:    f.FeatureName,
				Enabled: f.Enabled,
				Source:  "flag",
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"features": features})
}
