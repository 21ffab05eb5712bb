package billing

import (
	"context"
	"time"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/pkg/repository"
	"tenantadmin-controlplane/services/access"
	"tenantadmin-controlplane/services/plan"
	"tenantadmin-controlplane/services/tenant"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GracePeriod is how long a tenant keeps access after a failed payment.
const GracePeriod = 7 * 24 * time.Hour

// Reconciler folds Stripe webhook events into tenant billing state. Every
// handled event overwrites the full billing projection for its tenant, so
// replaying an event is a no-op and out-of-order delivery converges on the
// last event applied.
type Reconciler struct {
	repo   repository.Repository[tenant.Tenant]
	access *access.Service
	cfg    *config.Config
}

type ReconcilerParams struct {
	fx.In
	DB     *gorm.DB
	Access *access.Service
	Config *config.Config
}

func NewReconciler(p ReconcilerParams) *Reconciler {
	return &Reconciler{
		repo:   repository.ProvideStore[tenant.Tenant](p.DB),
		access: p.Access,
		cfg:    p.Config,
	}
}

// Apply looks up the tenant by Stripe customer ID and writes the event's
// billing state. Events for unknown customers fail so Stripe retries them.
func (r *Reconciler) Apply(ctx context.Context, ev Event) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("event_id", ev.ID),
		zap.String("event_type", string(ev.Kind)),
	)

	if ev.Kind == KindUnknown {
		zapLog.Info("ignoring unhandled billing event")
		return nil
	}

	if ev.CustomerID == "" {
		return errutil.BadRequest("event carries no customer id")
	}

	t, err := r.repo.FindOne(ctx, &tenant.Tenant{StripeCustomerID: ev.CustomerID})
	if err != nil {
		zapLog.Error("failed to look up tenant by stripe customer", zap.Error(err))
		return errutil.Internal("tenant lookup failed", errutil.WithErr(err))
	}
	if t == nil {
		return errutil.BadRequest("no tenant for stripe customer",
			errutil.WithDetails(errutil.Detail{Field: "customer_id", Message: ev.CustomerID}))
	}

	values := r.valuesFor(ev)
	if len(values) == 0 {
		return nil
	}

	if err := r.repo.Update(ctx, t.ID, values); err != nil {
		zapLog.Error("failed to persist billing state", zap.Error(err))
		return errutil.Internal("billing state update failed", errutil.WithErr(err))
	}

	r.access.Invalidate(t.ID)

	zapLog.Info("billing state reconciled", zap.String("tenant_id", t.ID))
	return nil
}

func (r *Reconciler) valuesFor(ev Event) map[string]any {
	switch ev.Kind {
	case KindCheckoutCompleted:
		tier := ev.Tier
		if tier == "" {
			tier = r.cfg.Stripe.DefaultTier
		}
		return map[string]any{
			"stripe_subscription_id": ev.SubscriptionID,
			"subscription_status":    tenant.SubscriptionActive,
			"subscription_tier":      tier,
			"status":                 tenant.Active,
			"grace_period_ends_at":   nil,
		}

	case KindSubscriptionCreated, KindSubscriptionUpdated:
		tier := ev.Tier
		if tier == "" {
			tier = r.cfg.Stripe.DefaultTier
		}

		values := map[string]any{
			"stripe_subscription_id": ev.SubscriptionID,
			"subscription_status":    ev.Status,
			"subscription_tier":      tier,
			"current_period_end":     ev.PeriodEnd,
		}
		// Seat overrides belong to tenant admins; billing only touches the
		// override when the subscription metadata explicitly carries one.
		if ev.SeatLimit != nil {
			values["seat_limit"] = ev.SeatLimit
		}
		if tenant.SubscriptionStatus(ev.Status).IsActive() {
			values["grace_period_ends_at"] = nil
		}
		return values

	case KindSubscriptionDeleted:
		return map[string]any{
			"subscription_status":    tenant.SubscriptionCanceled,
			"stripe_subscription_id": "",
			"subscription_tier":      plan.DemoKey,
			"grace_period_ends_at":   nil,
		}

	case KindSubscriptionPaused:
		return map[string]any{
			"subscription_status": tenant.SubscriptionPastDue,
		}

	case KindSubscriptionResumed:
		return map[string]any{
			"subscription_status":  tenant.SubscriptionActive,
			"grace_period_ends_at": nil,
		}

	case KindPaymentSucceeded:
		return map[string]any{
			"subscription_status":  tenant.SubscriptionActive,
			"last_payment_at":      time.Now().UTC(),
			"grace_period_ends_at": nil,
		}

	case KindPaymentFailed:
		return map[string]any{
			"subscription_status":  tenant.SubscriptionPastDue,
			"grace_period_ends_at": time.Now().UTC().Add(GracePeriod),
		}

	case KindCustomerDeleted:
		return map[string]any{
			"stripe_customer_id":     "",
			"stripe_subscription_id": "",
			"subscription_status":    tenant.SubscriptionCanceled,
			"grace_period_ends_at":   nil,
		}
	}

	return nil
}
