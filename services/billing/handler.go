package billing

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tenantadmin-controlplane/pkg/config"
	"tenantadmin-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const webhookBodyLimit = 1 << 20 // Stripe caps event payloads at 1 MiB

var (
	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_events_total",
		Help: "Stripe webhook events by type and response status.",
	}, []string{"event_type", "status"})

	webhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "billing_webhook_duration_seconds",
		Help: "Stripe webhook handling latency by event type.",
	}, []string{"event_type"})
)

type Handler struct {
	secret     string
	reconciler *Reconciler
}

type HandlerParams struct {
	fx.In
	Config     *config.Config
	Reconciler *Reconciler
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		secret:     p.Config.Stripe.WebhookSecret,
		reconciler: p.Reconciler,
	}
}

func registerRoutes(engine *gin.Engine, h *Handler) {
	engine.POST("/v1/billing/webhook", h.Webhook)
}

// Webhook verifies the Stripe signature, normalizes the event and hands it
// to the reconciler. Unknown event types are acknowledged with 200 so Stripe
// does not retry them.
func (h *Handler) Webhook(c *gin.Context) {
	start := time.Now()
	eventType := "unknown"
	status := http.StatusOK
	defer func() {
		webhookEventsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
		webhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(h.secret) == "" {
		status = http.StatusServiceUnavailable
		c.JSON(status, gin.H{"error": "webhook secret not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		status = http.StatusBadRequest
		c.JSON(status, gin.H{"error": "failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		status = http.StatusBadRequest
		c.JSON(status, gin.H{"error": "missing Stripe signature"})
		return
	}

	stripeEvent, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		status = http.StatusBadRequest
		c.JSON(status, gin.H{"error": "invalid Stripe signature"})
		return
	}
	eventType = string(stripeEvent.Type)

	ev, err := ParseEvent(&stripeEvent)
	if err != nil {
		status = http.StatusBadRequest
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if err := h.reconciler.Apply(c.Request.Context(), ev); err != nil {
		zap.L().Error("billing webhook failed",
			zap.Error(err),
			zap.String("event_id", stripeEvent.ID),
			zap.String("event_type", eventType),
		)
		status = errutil.StatusOf(err).HTTPStatus()
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(status, gin.H{
		"received":   true,
		"event_type": eventType,
		"event_id":   stripeEvent.ID,
	})
}
